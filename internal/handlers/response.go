package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/apiclient"
	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/middleware"
	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/query"
	"github.com/ngenohkevin/lmsdesk/internal/state"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ListResponse represents a paginated list response
type ListResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta,omitempty"`
}

func abortWithError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondError maps err onto a status and error code. fallback is the
// message used for failures that carry nothing worth showing.
func respondError(c *gin.Context, err error, fallback string) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", validationErr.Fields)
		return
	}

	if errors.Is(err, query.ErrQueryDisabled) {
		abortWithError(c, http.StatusBadRequest, "INVALID_ID", "A positive id is required", nil)
		return
	}
	if errors.Is(err, hooks.ErrUnsupported) {
		abortWithError(c, http.StatusMethodNotAllowed, "UNSUPPORTED_OPERATION", err.Error(), nil)
		return
	}

	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		var details interface{}
		if len(httpErr.Fields) > 0 {
			details = httpErr.Fields
		}
		switch {
		case errors.Is(err, apiclient.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "NOT_FOUND", httpErr.Text(), details)
		case errors.Is(err, apiclient.ErrConflict):
			abortWithError(c, http.StatusConflict, "CONFLICT_ERROR", httpErr.Text(), details)
		case httpErr.StatusCode == http.StatusBadRequest || httpErr.StatusCode == http.StatusUnprocessableEntity:
			abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", httpErr.Text(), details)
		case httpErr.ServerSide():
			abortWithError(c, http.StatusBadGateway, "UPSTREAM_ERROR", httpErr.Text(), nil)
		default:
			abortWithError(c, httpErr.StatusCode, "UPSTREAM_ERROR", httpErr.Text(), details)
		}
		return
	}

	var timeoutErr *apiclient.TimeoutError
	if errors.As(err, &timeoutErr) {
		abortWithError(c, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "The library service did not answer in time", nil)
		return
	}
	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) {
		abortWithError(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "The library service is unreachable", nil)
		return
	}

	abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, nil)
}

// respondMutationError reports a failed write and leaves the failure as the
// session's current notification.
func respondMutationError(c *gin.Context, err error, fallback string) {
	if sess := middleware.GetSession(c); sess != nil {
		sess.Notifications.ShowError(err)
	}
	respondError(c, err, fallback)
}

func notifySuccess(c *gin.Context, message string) {
	if sess := middleware.GetSession(c); sess != nil {
		sess.Notifications.Show(message, state.SeveritySuccess)
	}
}

func respondBindError(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "INVALID_ID", "Invalid id", nil)
		return 0, false
	}
	return id, true
}

// requireSession returns the session attached by middleware.Session.
func requireSession(c *gin.Context) (*state.Session, bool) {
	sess := middleware.GetSession(c)
	if sess == nil {
		abortWithError(c, http.StatusInternalServerError, "SESSION_MISSING", "No session is attached to the request", nil)
		return nil, false
	}
	return sess, true
}

// intParam parses an optional integer query parameter.
func intParam(c *gin.Context, name string) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// pageMeta describes a page with 1-indexed page numbers, as shown to users.
func pageMeta[T any](page *models.Page[T]) gin.H {
	return gin.H{
		"page":          page.Page + 1,
		"size":          page.Size,
		"totalElements": page.TotalElements,
		"totalPages":    page.TotalPages,
		"hasNext":       page.HasNext(),
	}
}
