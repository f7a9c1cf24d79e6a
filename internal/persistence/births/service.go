// Package birthspersist mirrors resolved wallet births into Postgres so
// other processes can consume them without replaying the lookup chain.
package birthspersist

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"tradelens-api/internal/model"
)

// Service writes resolved births after each enrichment run. A nil *Service
// is a valid no-op, mirroring how the rest of the stack treats optional
// Postgres wiring.
type Service struct {
	conn  sqlx.SqlConn
	model model.WalletBirthsModel
}

// NewService wires a persistence service. Returns nil when no connection is
// configured.
func NewService(conn sqlx.SqlConn, births model.WalletBirthsModel) *Service {
	if conn == nil || births == nil {
		return nil
	}
	return &Service{conn: conn, model: births}
}

// RecordBirths upserts one row per address. Row-level failures are logged
// and skipped; mirroring must never disturb the enrichment path.
func (s *Service) RecordBirths(ctx context.Context, births map[string]*time.Time) {
	if s == nil || len(births) == 0 {
		return
	}
	now := time.Now().UTC()
	for address, createdAt := range births {
		row := &model.WalletBirth{
			Address:    address,
			ResolvedAt: now,
		}
		if createdAt != nil {
			row.CreatedAt = sql.NullTime{Time: createdAt.UTC(), Valid: true}
		}
		if err := s.model.Upsert(ctx, row); err != nil {
			logx.WithContext(ctx).Errorf("birthspersist: upsert %s: %v", address, err)
		}
	}
}
