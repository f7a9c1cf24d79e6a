package svc

import (
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"tradelens-api/internal/config"
	"tradelens-api/internal/model"
	birthspersist "tradelens-api/internal/persistence/births"
	"tradelens-api/pkg/enrich"
	"tradelens-api/pkg/marketmeta"
	"tradelens-api/pkg/trades"
	"tradelens-api/pkg/wallet"
)

type ServiceContext struct {
	Config config.Config

	TradeFeed *trades.Client
	Enricher  *enrich.Enricher

	WalletCache *wallet.BirthCache
	TagCache    *marketmeta.TagCache

	// Optional Postgres mirror; nil when no DSN is configured.
	DBConn            sqlx.SqlConn
	WalletBirthsModel model.WalletBirthsModel
	Births            *birthspersist.Service
}

func NewServiceContext(c config.Config) *ServiceContext {
	walletCfg := c.Wallet.Value
	if walletCfg == nil {
		log.Fatalf("wallet config section is required")
	}
	marketsCfg := c.Markets.Value
	if marketsCfg == nil {
		log.Fatalf("markets config section is required")
	}

	// Wallet-birth pipeline: two explorer locators in front of the chain RPC.
	primary := wallet.NewScanClient(walletCfg.Primary.BaseURL, wallet.WithAPIKey(walletCfg.Primary.APIKey))
	var secondary wallet.TxLocator
	if walletCfg.Secondary.BaseURL != "" {
		secondary = wallet.NewScanClient(walletCfg.Secondary.BaseURL, wallet.WithAPIKey(walletCfg.Secondary.APIKey))
	}
	chain, err := wallet.DialChain(walletCfg.RPCURL)
	if err != nil {
		log.Fatalf("failed to dial chain rpc: %v", err)
	}

	walletCache := wallet.NewBirthCache(walletCfg.SnapshotPath, walletCfg.TTLPolicy())
	if err := walletCache.Load(); err != nil {
		log.Printf("warning: wallet cache snapshot not loaded: %v", err)
	}
	tagCache := marketmeta.NewTagCache(marketsCfg.SnapshotPath, marketsCfg.TagTTL())
	if err := tagCache.Load(); err != nil {
		log.Printf("warning: tag cache snapshot not loaded: %v", err)
	}

	births := wallet.NewResolver(primary, secondary, chain, walletCache, walletCfg)
	categories := marketmeta.NewResolver(marketmeta.NewClient(marketsCfg.BaseURL), tagCache, marketsCfg)

	svc := &ServiceContext{
		Config: c,
		TradeFeed: trades.NewClient(c.TradeFeed.BaseURL,
			trades.WithPageSize(c.TradeFeed.PageSize)),
		Enricher:    enrich.NewEnricher(births, categories, c.Enrich.Value),
		WalletCache: walletCache,
		TagCache:    tagCache,
	}

	// Only inject the Postgres mirror when a DSN is provided.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.WalletBirthsModel = model.NewWalletBirthsModel(conn)
		svc.Births = birthspersist.NewService(conn, svc.WalletBirthsModel)
	}
	return svc
}

// Close flushes both cache snapshots and cancels pending debounce timers.
func (s *ServiceContext) Close() {
	s.WalletCache.Stop()
	s.TagCache.Stop()
	if err := s.WalletCache.FlushNow(); err != nil {
		log.Printf("warning: wallet cache flush: %v", err)
	}
	if err := s.TagCache.FlushNow(); err != nil {
		log.Printf("warning: tag cache flush: %v", err)
	}
}
