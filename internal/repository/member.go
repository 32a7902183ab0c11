package repository

import (
	"context"

	"chatroom-api/internal/domain"
)

// MemberRepository defines persistence operations for Member profiles.
type MemberRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, member *domain.Member) (int64, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Member, error)
}
