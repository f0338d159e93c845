package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/middleware"
	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/query"
	"github.com/ngenohkevin/lmsdesk/internal/state"
)

const (
	testCookie     = "lmsdesk_session"
	testAdminToken = "admin-token"
)

type testEnv struct {
	router   *gin.Engine
	books    *MockBookService
	users    *MockUserService
	loans    *MockLoanService
	contents *MockContentService
	auth     *MockAuthService
	export   *MockExportService
	registry *state.Registry

	// cookie is replayed on every request, like a browser would.
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := query.NewClient(query.Options{StaleTime: time.Minute, RetryBackoff: time.Millisecond}, logger)
	t.Cleanup(client.Stop)

	env := &testEnv{
		books:    new(MockBookService),
		users:    new(MockUserService),
		loans:    new(MockLoanService),
		contents: new(MockContentService),
		auth:     new(MockAuthService),
		export:   new(MockExportService),
	}
	env.registry = state.NewRegistry(state.RegistryOptions{SearchDelay: 50 * time.Millisecond}, state.NewMemoryPersister(), logger)
	t.Cleanup(env.registry.Stop)

	env.auth.On("ValidateToken", mock.Anything, testAdminToken).
		Return(&models.JWTClaims{Username: "admin", Role: models.RoleAdmin}, nil).Maybe()

	env.router = NewRouter(Dependencies{
		Hooks:    hooks.NewSet(client, env.books, env.users, env.loans, env.contents),
		Auth:     env.auth,
		Export:   env.export,
		Registry: env.registry,
		Session:  middleware.SessionOptions{Cookie: testCookie, MaxAge: time.Hour},
		Version:  "test",
		Logger:   logger,
	})
	return env
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
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
	return e.serve(req, admin)
}

func (e *testEnv) serve(req *http.Request, admin bool) *httptest.ResponseRecorder {
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			e.cookie = c
		}
	}
	return w
}

func (e *testEnv) session(t *testing.T) *state.Session {
	t.Helper()
	require.NotNil(t, e.cookie, "no session cookie issued yet")
	sess, ok := e.registry.Get(e.cookie.Value)
	require.True(t, ok)
	return sess
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func bookPage(books ...models.Book) *models.Page[models.Book] {
	return models.NewPage(books, 0, 10, int64(len(books)))
}
