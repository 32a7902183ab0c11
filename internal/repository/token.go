package repository

import (
	"context"

	"chatroom-api/internal/domain"
)

// TokenRepository manages the one-token-per-user bearer token bindings.
// Insert must be a no-op when the user already has a token, so that
// concurrent logins converge on a single value.
type TokenRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, token *domain.Token) error
	GetByUserID(ctx context.Context, userID int64) (*domain.Token, error)
	GetByValue(ctx context.Context, value string) (*domain.Token, error)
	DeleteByUserID(ctx context.Context, userID int64) error
}
