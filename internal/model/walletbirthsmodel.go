package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ WalletBirthsModel = (*defaultWalletBirthsModel)(nil)

// WalletBirth is one resolved (or confirmed-unknown) wallet creation row.
type WalletBirth struct {
	Address    string       `db:"address"`
	CreatedAt  sql.NullTime `db:"created_at"` // null while the birth is unknown
	ResolvedAt time.Time    `db:"resolved_at"`
}

type (
	// WalletBirthsModel mirrors resolved wallet births into Postgres.
	WalletBirthsModel interface {
		Upsert(ctx context.Context, birth *WalletBirth) error
		FindOne(ctx context.Context, address string) (*WalletBirth, error)
		Recent(ctx context.Context, limit int) ([]WalletBirth, error)
	}

	defaultWalletBirthsModel struct {
		conn sqlx.SqlConn
	}
)

// NewWalletBirthsModel returns a model for the wallet_births table.
func NewWalletBirthsModel(conn sqlx.SqlConn) WalletBirthsModel {
	return &defaultWalletBirthsModel{conn: conn}
}

func (m *defaultWalletBirthsModel) Upsert(ctx context.Context, birth *WalletBirth) error {
	const stmt = `
INSERT INTO public.wallet_births (address, created_at, resolved_at)
VALUES ($1, $2, $3)
ON CONFLICT (address) DO UPDATE SET
    created_at = EXCLUDED.created_at,
    resolved_at = EXCLUDED.resolved_at;`
	if _, err := m.conn.ExecCtx(ctx, stmt, birth.Address, birth.CreatedAt, birth.ResolvedAt); err != nil {
		return fmt.Errorf("wallet_births.Upsert %s: %w", birth.Address, err)
	}
	return nil
}

func (m *defaultWalletBirthsModel) FindOne(ctx context.Context, address string) (*WalletBirth, error) {
	const query = `
SELECT address, created_at, resolved_at
FROM public.wallet_births
WHERE address = $1
LIMIT 1`
	var row WalletBirth
	if err := m.conn.QueryRowCtx(ctx, &row, query, address); err != nil {
		return nil, fmt.Errorf("wallet_births.FindOne %s: %w", address, err)
	}
	return &row, nil
}

// Recent returns the most recently resolved rows, newest first. Limit
// defaults to 200 when non-positive.
func (m *defaultWalletBirthsModel) Recent(ctx context.Context, limit int) ([]WalletBirth, error) {
	if limit <= 0 {
		limit = 200
	}
	const query = `
SELECT address, created_at, resolved_at
FROM public.wallet_births
ORDER BY resolved_at DESC
LIMIT $1`
	var rows []WalletBirth
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("wallet_births.Recent: %w", err)
	}
	return rows, nil
}
