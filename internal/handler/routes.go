package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"tradelens-api/internal/svc"
)

// RegisterHandlers mounts the API surface on the rest server.
func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/trades/enriched",
			Handler: EnrichedTradesHandler(serverCtx),
		},
	})
}
