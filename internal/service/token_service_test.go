package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssueIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	users := env.userService()
	tokens := NewTokenService(env.tokens, env.users)
	ctx := context.Background()

	member, err := users.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	first, err := tokens.Issue(ctx, member.UserID)
	require.NoError(t, err)
	require.Len(t, first, 40)

	second, err := tokens.Issue(ctx, member.UserID)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestResolveReturnsSanitizedUser(t *testing.T) {
	env := newTestEnv(t)
	users := env.userService()
	tokens := NewTokenService(env.tokens, env.users)
	ctx := context.Background()

	member, err := users.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	value, err := tokens.Issue(ctx, member.UserID)
	require.NoError(t, err)

	user, err := tokens.Resolve(ctx, value)
	require.NoError(t, err)
	require.Equal(t, member.UserID, user.ID)
	require.Equal(t, "alice", user.Username)
	require.Empty(t, user.PasswordHash)
}

func TestResolveUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	tokens := NewTokenService(env.tokens, env.users)

	_, err := tokens.Resolve(context.Background(), "deadbeef")
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = tokens.Resolve(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRevokeEndsSession(t *testing.T) {
	env := newTestEnv(t)
	users := env.userService()
	tokens := NewTokenService(env.tokens, env.users)
	ctx := context.Background()

	member, err := users.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	value, err := tokens.Issue(ctx, member.UserID)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(ctx, member.UserID))

	_, err = tokens.Resolve(ctx, value)
	require.ErrorIs(t, err, ErrUnauthenticated)

	// revoking with no live token is fine
	require.NoError(t, tokens.Revoke(ctx, member.UserID))

	// next issue mints a fresh value
	fresh, err := tokens.Issue(ctx, member.UserID)
	require.NoError(t, err)
	require.NotEqual(t, value, fresh)
}
