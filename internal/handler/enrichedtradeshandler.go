package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/rest/httpx"

	"tradelens-api/internal/svc"
	"tradelens-api/internal/types"
	"tradelens-api/pkg/enrich"
)

// EnrichedTradesHandler serves the latest trade batch with both enrichments
// joined on. The response is best-effort by construction: resolver failures
// surface as null birth timestamps and Other categories, never as errors.
func EnrichedTradesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := svcCtx.Config.TradeFeed.BatchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
				limit = parsed
			}
		}

		batch, err := svcCtx.TradeFeed.Recent(r.Context(), limit)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		enriched := svcCtx.Enricher.Enrich(r.Context(), batch)
		if svcCtx.Births != nil {
			svcCtx.Births.RecordBirths(r.Context(), birthsFrom(enriched))
		}
		httpx.OkJsonCtx(r.Context(), w, toResponse(enriched))
	}
}

func toResponse(enriched []enrich.EnrichedTrade) types.EnrichedTradesResponse {
	views := make([]types.EnrichedTradeView, 0, len(enriched))
	for _, trade := range enriched {
		view := types.EnrichedTradeView{
			ProxyWallet:     trade.ProxyWallet,
			Title:           trade.Title,
			Side:            string(trade.Side),
			CashAmount:      trade.CashAmount,
			Timestamp:       trade.Timestamp,
			TransactionHash: trade.TransactionHash,
			Category:        trade.Category,
			Subcategory:     trade.Subcategory,
			Tags:            trade.Tags,
		}
		if trade.WalletCreatedAt != nil {
			unix := trade.WalletCreatedAt.Unix()
			view.WalletCreatedAt = &unix
		}
		if view.Tags == nil {
			view.Tags = []string{}
		}
		views = append(views, view)
	}
	return types.EnrichedTradesResponse{
		Trades:     views,
		ServerTime: time.Now().UnixMilli(),
	}
}

func birthsFrom(enriched []enrich.EnrichedTrade) map[string]*time.Time {
	births := make(map[string]*time.Time, len(enriched))
	for _, trade := range enriched {
		births[strings.ToLower(trade.ProxyWallet)] = trade.WalletCreatedAt
	}
	return births
}
