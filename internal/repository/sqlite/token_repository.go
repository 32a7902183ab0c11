package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatroom-api/internal/domain"
	"chatroom-api/internal/repository"
)

const createTokensTable = `
CREATE TABLE IF NOT EXISTS tokens (
	user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	token TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
);
`

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) repository.TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTokensTable); err != nil {
		return fmt.Errorf("create tokens table: %w", err)
	}
	return nil
}

// Insert stores the binding unless the user already has one. The conflict
// clause makes concurrent get-or-create converge on the first writer's token.
func (r *TokenRepository) Insert(ctx context.Context, token *domain.Token) error {
	token.CreatedAt = time.Now().UTC()

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO tokens (user_id, token, created_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO NOTHING`,
		token.UserID,
		token.Value,
		token.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Token, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, token, created_at
FROM tokens
WHERE user_id = ?`,
		userID,
	)
	return scanToken(row)
}

func (r *TokenRepository) GetByValue(ctx context.Context, value string) (*domain.Token, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, token, created_at
FROM tokens
WHERE token = ?`,
		value,
	)
	return scanToken(row)
}

// DeleteByUserID removes the binding; deleting an absent binding is not an
// error.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func scanToken(row interface {
	Scan(dest ...any) error
}) (*domain.Token, error) {
	var token domain.Token
	if err := row.Scan(
		&token.UserID,
		&token.Value,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &token, nil
}
