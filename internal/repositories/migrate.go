package repositories

import (
	"context"
	_ "embed"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
)

//go:embed schema.sql
var schema string

// Migrate creates the users and products tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	logger.Log.Infow("schema migration applied", "error", err)
	return err
}
