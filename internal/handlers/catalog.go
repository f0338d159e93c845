package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/query"
	"github.com/ngenohkevin/lmsdesk/internal/state"
)

// CatalogHandler serves the public catalog. Every read goes through the
// shared query cache; the filters are those of the caller's session.
type CatalogHandler struct {
	hooks     *hooks.Set
	logger    *slog.Logger
	keepAlive time.Duration
}

func NewCatalogHandler(set *hooks.Set, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		hooks:     set,
		logger:    logger,
		keepAlive: 15 * time.Second,
	}
}

type SearchInputRequest struct {
	Value string `json:"value"`
	// Flush applies the value at once instead of waiting for typing to pause.
	Flush bool `json:"flush"`
}

// StreamState is one catalog state change as sent over SSE.
type StreamState struct {
	Status     query.Status `json:"status"`
	Data       interface{}  `json:"data,omitempty"`
	Error      string       `json:"error,omitempty"`
	IsFetching bool         `json:"isFetching"`
	IsStale    bool         `json:"isStale"`
	UpdatedAt  *time.Time   `json:"updatedAt,omitempty"`
}

func newStreamState(s query.State) StreamState {
	out := StreamState{
		Status:     s.Status,
		Data:       s.Data,
		IsFetching: s.IsFetching,
		IsStale:    s.IsStale,
	}
	if s.Err != nil {
		out.Error = state.ErrorMessage(s.Err)
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

// ListBooks lists the catalog
// @Summary Browse the catalog
// @Description URL parameters replace the session's catalog filters; absent parameters keep them
// @Tags catalog
// @Produce json
// @Param search query string false "Title search"
// @Param author query string false "Author"
// @Param genre query string false "Genre"
// @Param availability query string false "all, available or unavailable"
// @Param page query int false "Page number (1-indexed)"
// @Param size query int false "Page size"
// @Success 200 {object} ListResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/catalog/books [get]
func (h *CatalogHandler) ListBooks(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	filters := sess.Catalog.ApplyQuery(c.Request.URL.Query())

	page, err := h.hooks.Books.List(c.Request.Context(), filters.Page, filters.Size, filters.Query())
	if err != nil {
		respondError(c, err, "Failed to load the catalog")
		return
	}

	meta := pageMeta(page)
	meta["filters"] = filters
	meta["query"] = filters.ToQuery().Encode()

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    page.Content,
		Meta:    meta,
	})
}

// Search feeds a keystroke into the session's search input. The catalog
// search follows once typing has paused.
func (h *CatalogHandler) Search(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req SearchInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sess.SetSearchInput(req.Value)
	if req.Flush {
		sess.FlushSearch()
		c.JSON(http.StatusOK, SuccessResponse{
			Success: true,
			Data:    sess.Catalog.Get(),
		})
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Success: true,
		Message: "Search scheduled",
	})
}

// Stream pushes every state change of the session's current catalog query
// until the client goes away.
func (h *CatalogHandler) Stream(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	filters := sess.Catalog.Get()
	observer := h.hooks.Books.WatchList(filters.Page, filters.Size, filters.Query())
	defer observer.Close()

	h.logger.Debug("Catalog stream opened", "session", sess.ID, "key", observer.Key().String())

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.SSEvent("state", newStreamState(observer.State()))
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case s, ok := <-observer.Changes():
			if !ok {
				return false
			}
			c.SSEvent("state", newStreamState(s))
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})

	h.logger.Debug("Catalog stream closed", "session", sess.ID)
}

// GetBook returns one catalog title.
func (h *CatalogHandler) GetBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	book, err := h.hooks.Books.Detail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load the book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    book,
	})
}

// PublishedContents lists published articles.
func (h *CatalogHandler) PublishedContents(c *gin.Context) {
	contents, err := h.hooks.Contents.Published(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load articles")
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    contents,
	})
}
