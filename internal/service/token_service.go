package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"chatroom-api/internal/domain"
	"chatroom-api/internal/repository"
)

// ErrUnauthenticated is returned when a presented token resolves to nothing.
var ErrUnauthenticated = errors.New("invalid or missing token")

// tokenBytes yields 40 hex characters per token value.
const tokenBytes = 20

// TokenService mints, resolves, and revokes the opaque bearer tokens that
// prove a logged-in session. There is at most one live token per user.
type TokenService interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, value string) (*domain.User, error)
	Revoke(ctx context.Context, userID int64) error
}

type tokenService struct {
	tokens repository.TokenRepository
	users  repository.UserRepository
}

func NewTokenService(tokens repository.TokenRepository, users repository.UserRepository) TokenService {
	return &tokenService{
		tokens: tokens,
		users:  users,
	}
}

// Issue returns the user's existing token, or mints and persists a new one.
// Repeated calls return the same value until Revoke.
func (s *tokenService) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := s.tokens.GetByUserID(ctx, userID)
	if err == nil {
		return token.Value, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	value, err := generateTokenValue()
	if err != nil {
		return "", err
	}
	if err := s.tokens.Insert(ctx, &domain.Token{UserID: userID, Value: value}); err != nil {
		return "", err
	}

	// re-read rather than trusting our candidate: a concurrent login may
	// have won the unique constraint on user_id
	token, err = s.tokens.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

// Resolve maps a presented token to its user, sanitized of the credential
// hash. Unknown tokens yield ErrUnauthenticated.
func (s *tokenService) Resolve(ctx context.Context, value string) (*domain.User, error) {
	if value == "" {
		return nil, ErrUnauthenticated
	}

	token, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// Revoke ends the session. Revoking a user with no token is a no-op.
func (s *tokenService) Revoke(ctx context.Context, userID int64) error {
	return s.tokens.DeleteByUserID(ctx, userID)
}

func generateTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
