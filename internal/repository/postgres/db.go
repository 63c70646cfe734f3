package postgres

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// New opens the remote likes database and verifies it answers within timeout.
func New(ctx context.Context, dsn string, timeout time.Duration) (*sqlx.DB, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlx.ConnectContext(ctx, "pgx", dsn)
}
