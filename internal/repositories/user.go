package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/models"
)

const userColumns = `id, username, password_hash, email, role, last_login, created_at`

// UserReadRepository handles user lookups
type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByUsername returns the user with exactly this username, or nil if there is none.
func (r *UserReadRepository) GetByUsername(ctx context.Context, username string) (*models.UserDB, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.get(ctx, query, username)
}

// GetByID returns the user with this id, or nil if there is none.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserDB, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *UserReadRepository) get(ctx context.Context, query string, arg any) (*models.UserDB, error) {
	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, arg)

	// Hash is left out of the log on purpose
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{arg},
		"result", user.ID,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserWriteRepository handles user mutations
type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// UpdateLastLogin stamps the user's last_login with the database clock.
func (r *UserWriteRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	const query = `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`
	return r.exec(ctx, query, []any{id}, []any{id})
}

// UpdatePasswordHash overwrites the stored password hash.
func (r *UserWriteRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1 WHERE id = $2`
	return r.exec(ctx, query, []any{passwordHash, id}, []any{"***", id})
}

func (r *UserWriteRepository) exec(ctx context.Context, query string, args, logArgs []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", logArgs,
		"result", rowsAffected,
		"error", err,
	)

	return err
}
