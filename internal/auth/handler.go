package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/response"
	"github.com/vmeste-app/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	TelegramID  string `json:"telegram_id"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth and user lookup HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Role always starts as USER.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		Password:    hash,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		TelegramID:  req.TelegramID,
		Role:        models.RoleUser,
	}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		response.FromError(c, err, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /users/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load user")
		return
	}
	response.OK(c, user.ToPublic())
}

// GetByTelegramID handles GET /users/telegram/:telegramId.
func (h *Handler) GetByTelegramID(c *gin.Context) {
	user, err := h.repo.GetByTelegramID(c.Request.Context(), c.Param("telegramId"))
	if err != nil {
		response.FromError(c, err, "failed to load user")
		return
	}
	response.OK(c, user.ToPublic())
}

// Exists handles GET /users/exists?username=...&email=... for
// pre-registration validation. At least one of the probes is required.
func (h *Handler) Exists(c *gin.Context) {
	username := c.Query("username")
	email := c.Query("email")
	if username == "" && email == "" {
		response.BadRequest(c, "username or email query parameter required")
		return
	}
	out := gin.H{}
	if username != "" {
		exists, err := h.repo.ExistsByUsername(c.Request.Context(), username)
		if err != nil {
			response.Internal(c, "failed to check username")
			return
		}
		out["username_taken"] = exists
	}
	if email != "" {
		exists, err := h.repo.ExistsByEmail(c.Request.Context(), email)
		if err != nil {
			response.Internal(c, "failed to check email")
			return
		}
		out["email_taken"] = exists
	}
	response.OK(c, out)
}
