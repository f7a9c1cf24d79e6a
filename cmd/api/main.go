package main

import (
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/rest"

	"tradelens-api/internal/config"
	"tradelens-api/internal/handler"
	"tradelens-api/internal/svc"
)

var configFile = flag.String("f", "etc/tradelens.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg)
	defer ctx.Close()
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
