package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/middleware"
	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

type AuthHandler struct {
	authService services.AuthServiceInterface
	logger      *slog.Logger
}

func NewAuthHandler(authService services.AuthServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login issues an admin access token
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Admin credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			abortWithError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
			return
		}
		h.logger.Error("Login failed", "error", err)
		abortWithError(c, http.StatusInternalServerError, "TOKEN_GENERATION_ERROR", "Error generating token", nil)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    resp,
		Message: "Login successful",
	})
}

// Logout revokes the bearer token of the request. When revocation is not
// possible the client is still told to drop the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.BlacklistToken(c.Request.Context(), middleware.GetToken(c)); err != nil {
		h.logger.Warn("Token could not be revoked", "username", middleware.GetUsername(c), "error", err)
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Logout successful",
	})
}

// Me returns the authenticated administrator.
func (h *AuthHandler) Me(c *gin.Context) {
	data := gin.H{
		"username": middleware.GetUsername(c),
		"role":     middleware.GetUserRole(c),
	}
	if claims := middleware.GetClaims(c); claims != nil && claims.ExpiresAt != nil {
		data["expires_at"] = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}
