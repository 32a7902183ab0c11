package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"chatroom-api/internal/repository/sqlite"
	"chatroom-api/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	memberRepo := sqlite.NewMemberRepository(db)
	tokenRepo := sqlite.NewTokenRepository(db)
	messageRepo := sqlite.NewMessageRepository(db)

	ctx := context.Background()
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, memberRepo.Init(ctx))
	require.NoError(t, tokenRepo.Init(ctx))
	require.NoError(t, messageRepo.Init(ctx))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		service.NewUserService(userRepo, memberRepo, bcrypt.MinCost),
		service.NewTokenService(tokenRepo, userRepo),
		service.NewMessageService(messageRepo),
		logger,
	)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func register(t *testing.T, router *gin.Engine, username, password string) AuthResponse {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	decode(t, rec, &resp)
	return resp
}

func TestHello(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/hello", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	decode(t, rec, &resp)
	require.Equal(t, "Hello!", resp["message"])
	require.NotEmpty(t, resp["timestamp"])
}

func TestRegisterReturnsProfileAndToken(t *testing.T) {
	router := newTestRouter(t)

	resp := register(t, router, "alice", "pw1")
	require.NotZero(t, resp.ID)
	require.Equal(t, "alice", resp.Username)
	require.NotEmpty(t, resp.CreatedAt)
	require.Len(t, resp.Token, 40)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	router := newTestRouter(t)

	register(t, router, "alice", "pw1")

	rec := doRequest(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "alice",
		"password": "other",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	decode(t, rec, &resp)
	require.Contains(t, resp["error"], "already exists")
}

func TestRegisterMissingFields(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/register", "", gin.H{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginReturnsSameTokenUntilLogout(t *testing.T) {
	router := newTestRouter(t)

	registered := register(t, router, "alice", "pw1")

	login := func() AuthResponse {
		rec := doRequest(t, router, http.MethodPost, "/api/login", "", gin.H{
			"username": "alice",
			"password": "pw1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		decode(t, rec, &resp)
		return resp
	}

	first := login()
	require.Equal(t, registered.Token, first.Token)
	require.Equal(t, registered.ID, first.ID)

	second := login()
	require.Equal(t, first.Token, second.Token)

	rec := doRequest(t, router, http.MethodPost, "/api/logout", first.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	fresh := login()
	require.NotEqual(t, first.Token, fresh.Token)
}

func TestLoginInvalidCredentials(t *testing.T) {
	router := newTestRouter(t)

	register(t, router, "alice", "pw1")

	wrongPassword := doRequest(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "alice",
		"password": "nope",
	})
	unknownUser := doRequest(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "nobody",
		"password": "pw1",
	})

	require.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	require.Equal(t, http.StatusBadRequest, unknownUser.Code)
	// both failures are indistinguishable to the caller
	require.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/logout"},
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/profile"},
		{http.MethodGet, "/api/messages"},
		{http.MethodPost, "/api/messages"},
	} {
		rec := doRequest(t, router, route.method, route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/me", "bogus-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// wrong scheme keyword is rejected too
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	raw := httptest.NewRecorder()
	router.ServeHTTP(raw, req)
	require.Equal(t, http.StatusUnauthorized, raw.Code)
}

func TestCurrentMember(t *testing.T) {
	router := newTestRouter(t)

	registered := register(t, router, "alice", "pw1")

	for _, path := range []string{"/api/me", "/api/profile"} {
		rec := doRequest(t, router, http.MethodGet, path, registered.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp MemberResponse
		decode(t, rec, &resp)
		require.Equal(t, registered.ID, resp.ID)
		require.Equal(t, "alice", resp.Username)
	}
}

func TestMessagesValidation(t *testing.T) {
	router := newTestRouter(t)
	registered := register(t, router, "alice", "pw1")

	empty := doRequest(t, router, http.MethodPost, "/api/messages", registered.Token, gin.H{"text": ""})
	require.Equal(t, http.StatusBadRequest, empty.Code)

	tooLong := doRequest(t, router, http.MethodPost, "/api/messages", registered.Token, gin.H{
		"text": strings.Repeat("x", 201),
	})
	require.Equal(t, http.StatusBadRequest, tooLong.Code)

	var resp map[string]string
	decode(t, tooLong, &resp)
	require.Contains(t, resp["error"], "text")

	// rejected messages never reach the log
	list := doRequest(t, router, http.MethodGet, "/api/messages", registered.Token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var listed []MessageResponse
	decode(t, list, &listed)
	require.Empty(t, listed)
}

func TestMessagesLimitKeepsEarliest(t *testing.T) {
	router := newTestRouter(t)
	registered := register(t, router, "alice", "pw1")

	for _, text := range []string{"A", "B", "C"} {
		rec := doRequest(t, router, http.MethodPost, "/api/messages", registered.Token, gin.H{"text": text})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/messages?limit=2", registered.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []MessageResponse
	decode(t, rec, &listed)
	require.Len(t, listed, 2)
	require.Equal(t, "A", listed[0].Text)
	require.Equal(t, "B", listed[1].Text)

	// junk limits fall back to the full log
	for _, query := range []string{"limit=0", "limit=-3", "limit=abc"} {
		rec := doRequest(t, router, http.MethodGet, "/api/messages?"+query, registered.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &listed)
		require.Len(t, listed, 3)
	}
}

func TestFullSessionScenario(t *testing.T) {
	router := newTestRouter(t)

	registered := register(t, router, "alice", "pw1")
	token := registered.Token

	loginRec := doRequest(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "alice",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, loginRec.Code)
	var login AuthResponse
	decode(t, loginRec, &login)
	require.Equal(t, token, login.Token)

	post := doRequest(t, router, http.MethodPost, "/api/messages", token, gin.H{"text": "hi"})
	require.Equal(t, http.StatusCreated, post.Code)

	list := doRequest(t, router, http.MethodGet, "/api/messages", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var listed []MessageResponse
	decode(t, list, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, "hi", listed[0].Text)
	require.Equal(t, "alice", listed[0].Member)

	logout := doRequest(t, router, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, logout.Code)
	var detail map[string]string
	decode(t, logout, &detail)
	require.Equal(t, "Logged out.", detail["detail"])

	after := doRequest(t, router, http.MethodGet, "/api/messages", token, nil)
	require.Equal(t, http.StatusUnauthorized, after.Code)
}
