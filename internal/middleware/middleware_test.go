package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/services"
	"github.com/ngenohkevin/lmsdesk/internal/state"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := decodeBody(t, w)["error"].(map[string]interface{})
	require.True(t, ok, "expected error object")
	code, _ := errObj["code"].(string)
	return code
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
		wantLog   bool
	}{
		{name: "success logs at info", path: "/test", status: http.StatusOK, wantLevel: "INFO", wantLog: true},
		{name: "client error logs at warn", path: "/test", status: http.StatusNotFound, wantLevel: "WARN", wantLog: true},
		{name: "server error logs at error", path: "/test", status: http.StatusBadGateway, wantLevel: "ERROR", wantLog: true},
		{name: "health check is quiet", path: "/health", status: http.StatusOK, wantLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			router := gin.New()
			router.Use(RequestID(), Logger(logger))
			router.GET(tt.path, func(c *gin.Context) {
				c.JSON(tt.status, gin.H{"message": "test"})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}

			var logEntry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
			assert.Equal(t, "HTTP Request", logEntry["msg"])
			assert.Equal(t, tt.wantLevel, logEntry["level"])
			assert.Equal(t, "GET", logEntry["method"])
			assert.Equal(t, tt.path, logEntry["route"])
			assert.Equal(t, float64(tt.status), logEntry["status"])
			assert.Equal(t, w.Header().Get(RequestIDHeader), logEntry["request_id"])
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

	router := gin.New()
	router.Use(Recovery(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
	assert.Contains(t, buf.String(), "Panic recovered")
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(200, GetRequestID(c))
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		id := "3f2c1b9e-8d7a-4c6b-9e5f-1a2b3c4d5e6f"
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, id)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("garbage replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", w.Body.String())
	})
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS("http://localhost:5173"))
	router.Any("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "test"})
	})

	tests := []struct {
		name           string
		method         string
		origin         string
		expectedStatus int
		expectAllowed  bool
	}{
		{name: "preflight from allowed origin", method: http.MethodOptions, origin: "http://localhost:5173", expectedStatus: 204, expectAllowed: true},
		{name: "GET from allowed origin", method: http.MethodGet, origin: "http://localhost:5173", expectedStatus: 200, expectAllowed: true},
		{name: "GET from unknown origin", method: http.MethodGet, origin: "http://evil.example", expectedStatus: 200},
		{name: "no origin", method: http.MethodPost, expectedStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectAllowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders(), NoStore())
	router.GET("/test", func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func createTestAuthService(t *testing.T) *services.AuthService {
	t.Helper()
	authService, err := services.NewAuthService(services.AuthOptions{
		Secret:      "middleware-test-secret",
		TokenExpiry: time.Hour,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	return authService
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	authService := createTestAuthService(t)
	middleware := NewAuthMiddleware(authService)

	validToken, err := authService.GenerateToken("admin")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/admin", middleware.RequireAuth(), middleware.RequireAdmin(), func(c *gin.Context) {
		c.JSON(200, gin.H{"username": GetUsername(c), "role": GetUserRole(c), "token": GetToken(c) != "", "subject": GetClaims(c).Subject})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedError  string
	}{
		{name: "missing authorization header", expectedStatus: http.StatusUnauthorized, expectedError: "MISSING_AUTH_HEADER"},
		{name: "wrong scheme", authHeader: "Basic abc", expectedStatus: http.StatusUnauthorized, expectedError: "INVALID_AUTH_FORMAT"},
		{name: "scheme without token", authHeader: "Bearer ", expectedStatus: http.StatusUnauthorized, expectedError: "INVALID_AUTH_FORMAT"},
		{name: "lowercase scheme", authHeader: "bearer " + validToken, expectedStatus: http.StatusOK},
		{name: "invalid token", authHeader: "Bearer not.a.token", expectedStatus: http.StatusUnauthorized, expectedError: "INVALID_TOKEN"},
		{name: "valid token", authHeader: "Bearer " + validToken, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, w))
				return
			}
			body := decodeBody(t, w)
			assert.Equal(t, "admin", body["username"])
			assert.Equal(t, string(models.RoleAdmin), body["role"])
			assert.Equal(t, true, body["token"])
			assert.Equal(t, "admin", body["subject"])
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	middleware := NewAuthMiddleware(createTestAuthService(t))

	tests := []struct {
		name           string
		role           any
		expectedStatus int
		expectedError  string
	}{
		{name: "no role", expectedStatus: http.StatusUnauthorized, expectedError: "MISSING_USER_ROLE"},
		{name: "wrong type", role: "admin", expectedStatus: http.StatusInternalServerError, expectedError: "INVALID_ROLE_TYPE"},
		{name: "other role", role: models.Role("viewer"), expectedStatus: http.StatusForbidden, expectedError: "INSUFFICIENT_PERMISSIONS"},
		{name: "admin", role: models.RoleAdmin, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/x", func(c *gin.Context) {
				if tt.role != nil {
					c.Set("user_role", tt.role)
				}
				c.Next()
			}, middleware.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, w))
			}
		})
	}
}

func TestRateLimiter_WithoutRedisAllows(t *testing.T) {
	limiter := NewRateLimiter(nil)
	router := gin.New()
	router.Use(limiter.AuthLimit())
	router.GET("/test", func(c *gin.Context) { c.Status(200) })

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_Limit(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	name := "test-" + strings.ReplaceAll(t.Name(), "/", "-")
	limiter := NewRateLimiter(client)
	router := gin.New()
	router.Use(limiter.Limit(name, RateLimit{Requests: 2, Window: time.Minute}))
	router.GET("/test", func(c *gin.Context) { c.Status(200) })
	t.Cleanup(func() {
		client.Del(context.Background(), rateLimitKey(name, "192.0.2.1"))
	})

	statuses := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/test", nil))
		statuses = append(statuses, last.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, statuses)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, last))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestSession(t *testing.T) {
	registry := state.NewRegistry(state.RegistryOptions{}, state.NewMemoryPersister(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.Use(Session(registry, SessionOptions{Cookie: "lmsdesk_session", MaxAge: time.Hour}))
	router.GET("/theme", func(c *gin.Context) {
		sess := GetSession(c)
		c.String(200, string(sess.Theme.Toggle()))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/theme", nil))
	assert.Equal(t, "dark", w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "lmsdesk_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/theme", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "light", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, 1, registry.Len())
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("username", "admin")
		c.Next()
	}, Audit(logger))
	router.GET("/books", func(c *gin.Context) { c.Status(200) })
	router.POST("/books", func(c *gin.Context) { c.Status(201) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Empty(t, buf.String())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/books", nil))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Admin action", entry["msg"])
	assert.Equal(t, "admin", entry["username"])
	assert.Equal(t, float64(201), entry["status"])
}
