package repository

import (
	"context"

	"chatroom-api/internal/domain"
)

// MessageRepository persists the append-only message log. List returns
// messages ordered ascending by creation time (id breaks ties); a positive
// limit truncates to the earliest N.
type MessageRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, message *domain.Message) (int64, error)
	List(ctx context.Context, limit int) ([]domain.Message, error)
}
