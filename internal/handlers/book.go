package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
)

// BookHandler handles admin book requests
type BookHandler struct {
	crud[models.Book, repository.BookFilters, models.CreateBookRequest, models.UpdateBookRequest]
	books *hooks.Books
}

// NewBookHandler creates a new book handler
func NewBookHandler(books *hooks.Books) *BookHandler {
	return &BookHandler{
		crud:  crud[models.Book, repository.BookFilters, models.CreateBookRequest, models.UpdateBookRequest]{resource: books.Resource, label: "book"},
		books: books,
	}
}

// ListBooks lists books with the session's admin book filters
// @Summary List books
// @Description Query parameters update the session's book filters before the read
// @Tags books
// @Produce json
// @Param page query int false "Page number (1-indexed)"
// @Param size query int false "Page size"
// @Param search query string false "Title search"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/admin/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	filters := applyBookPatch(sess.Books, patchFromQuery(c))

	page, err := h.books.List(c.Request.Context(), filters.Page, filters.Size, filters.Query())
	if err != nil {
		respondError(c, err, "Failed to list books")
		return
	}

	meta := pageMeta(page)
	meta["filters"] = filters
	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    page.Content,
		Meta:    meta,
	})
}
