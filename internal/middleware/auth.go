package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

// Context keys set by RequireAuth.
const (
	usernameKey = "username"
	roleKey     = "user_role"
	tokenKey    = "token"
	claimsKey   = "claims"
)

// AuthMiddleware guards the dashboard routes with bearer tokens issued by
// the auth service.
type AuthMiddleware struct {
	authService services.AuthServiceInterface
}

func NewAuthMiddleware(authService services.AuthServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// bearerToken extracts the token from the Authorization header. On failure
// it returns the error code to report.
func bearerToken(c *gin.Context) (token, code string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "MISSING_AUTH_HEADER"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
		return "", "INVALID_AUTH_FORMAT"
	}
	return token, ""
}

// RequireAuth rejects requests without a valid, unrevoked token and stores
// the claims on the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, code := bearerToken(c)
		switch code {
		case "MISSING_AUTH_HEADER":
			abort(c, http.StatusUnauthorized, code, "Authorization header is required")
			return
		case "INVALID_AUTH_FORMAT":
			abort(c, http.StatusUnauthorized, code, "Authorization header must be in format 'Bearer <token>'")
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(usernameKey, claims.Username)
		c.Set(roleKey, claims.Role)
		c.Set(tokenKey, token)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole lets the request through only for one of roles. It runs after
// RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(roleKey)
		if !exists {
			abort(c, http.StatusUnauthorized, "MISSING_USER_ROLE", "User role not found in context")
			return
		}
		role, ok := v.(models.Role)
		if !ok {
			abort(c, http.StatusInternalServerError, "INVALID_ROLE_TYPE", "Invalid role type in context")
			return
		}
		if !slices.Contains(roles, role) {
			abort(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions to access this resource")
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(models.RoleAdmin)
}

func GetUsername(c *gin.Context) string {
	return c.GetString(usernameKey)
}

func GetUserRole(c *gin.Context) models.Role {
	v, _ := c.Get(roleKey)
	role, _ := v.(models.Role)
	return role
}

// GetToken returns the bearer token of an authenticated request.
func GetToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// GetClaims returns the validated claims, or nil outside RequireAuth.
func GetClaims(c *gin.Context) *models.JWTClaims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*models.JWTClaims)
	return claims
}
