package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/sirupsen/logrus"

	"chatroom-api/internal/domain"
	"chatroom-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	tokens   service.TokenService
	messages service.MessageService
	logger   *logrus.Logger
}

func NewHandler(users service.UserService, tokens service.TokenService, messages service.MessageService, logger *logrus.Logger) *Handler {
	return &Handler{
		users:    users,
		tokens:   tokens,
		messages: messages,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.GET("/hello", h.hello)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/register", h.register)
		api.POST("/login", h.login)
	}

	protected := api.Group("")
	protected.Use(h.requireToken())
	{
		protected.POST("/logout", h.logout)
		protected.GET("/me", h.currentMember)
		protected.GET("/profile", h.currentMember)
		protected.GET("/messages", h.listMessages)
		protected.POST("/messages", h.createMessage)
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createMessageRequest struct {
	Text string `json:"text"`
}

// AuthResponse is the payload for both register and login. ID and CreatedAt
// describe the member profile, not the user row.
type AuthResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
	Token     string `json:"token"`
}

type MemberResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

type MessageResponse struct {
	ID        int64  `json:"id"`
	Member    string `json:"member"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Hello!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	member, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), member.UserID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authToResponse(member, token))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "both username and password are required"})
		return
	}

	member, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), member.UserID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, authToResponse(member, token))
}

func (h *Handler) logout(c *gin.Context) {
	user := currentUser(c)
	if err := h.tokens.Revoke(c.Request.Context(), user.ID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Logged out."})
}

func (h *Handler) currentMember(c *gin.Context) {
	user := currentUser(c)
	member, err := h.users.GetMember(c.Request.Context(), user.ID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberToResponse(member))
}

func (h *Handler) listMessages(c *gin.Context) {
	messages, err := h.messages.List(c.Request.Context(), parseLimit(c.Query("limit")))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp := make([]MessageResponse, len(messages))
	for i := range messages {
		resp[i] = messageToResponse(messages[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user := currentUser(c)
	member, err := h.users.GetMember(c.Request.Context(), user.ID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	message, err := h.messages.Append(c.Request.Context(), member, req.Text)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, messageToResponse(*message))
}

// parseLimit mirrors the list contract: only a positive integer narrows the
// result, anything else is ignored.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0
	}
	return limit
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Member profile not found."})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func authToResponse(member *domain.Member, token string) AuthResponse {
	return AuthResponse{
		ID:        member.ID,
		Username:  member.Username,
		CreatedAt: member.CreatedAt.Format(time.RFC3339),
		Token:     token,
	}
}

func memberToResponse(member *domain.Member) MemberResponse {
	return MemberResponse{
		ID:        member.ID,
		Username:  member.Username,
		CreatedAt: member.CreatedAt.Format(time.RFC3339),
	}
}

func messageToResponse(message domain.Message) MessageResponse {
	return MessageResponse{
		ID:        message.ID,
		Member:    message.MemberUsername,
		Text:      message.Text,
		CreatedAt: message.CreatedAt.Format(time.RFC3339),
	}
}
