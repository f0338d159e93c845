package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/state"
)

const (
	FeatureBooks   = "books"
	FeatureUsers   = "users"
	FeatureLoans   = "loans"
	FeatureCatalog = "catalog"
)

// FilterPatch changes some filters of one feature. Fields a feature does not
// have are ignored. Page is 0-indexed, like the stored filters.
type FilterPatch struct {
	Page         *int               `json:"page,omitempty"`
	Size         *int               `json:"size,omitempty"`
	Search       *string            `json:"search,omitempty"`
	Author       *string            `json:"author,omitempty"`
	Genre        *string            `json:"genre,omitempty"`
	Availability *string            `json:"availability,omitempty"`
	Status       *models.LoanStatus `json:"status,omitempty"`
	UserID       *int64             `json:"userId,omitempty"`
}

// patchFromQuery reads list parameters from the URL. Pages there are
// 1-indexed.
func patchFromQuery(c *gin.Context) FilterPatch {
	var p FilterPatch
	if page, ok := intParam(c, "page"); ok {
		page--
		p.Page = &page
	}
	if size, ok := intParam(c, "size"); ok {
		p.Size = &size
	}
	if search, ok := c.GetQuery("search"); ok {
		p.Search = &search
	}
	if status, ok := c.GetQuery("status"); ok {
		s := models.LoanStatus(status)
		p.Status = &s
	}
	if raw, ok := c.GetQuery("userId"); ok {
		if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			p.UserID = &userID
		}
	}
	return p
}

func (p FilterPatch) validate() error {
	if p.Status != nil && *p.Status != "" && !p.Status.Valid() {
		return models.NewValidationError("status", "must be one of [ATIVO DEVOLVIDO ATRASADO]")
	}
	if p.Availability != nil {
		switch *p.Availability {
		case "", state.AvailabilityAll, state.AvailabilityAvailable, state.AvailabilityUnavailable:
		default:
			return models.NewValidationError("availability", "must be one of [all available unavailable]")
		}
	}
	return nil
}

// The page is applied last so that it survives the resets done by the other
// setters.

func applyBookPatch(store *state.BookFilterStore, p FilterPatch) state.BookFilters {
	if p.Size != nil {
		store.SetSize(*p.Size)
	}
	if p.Search != nil {
		store.SetSearch(*p.Search)
	}
	if p.Page != nil {
		store.SetPage(*p.Page)
	}
	return store.Get()
}

func applyUserPatch(store *state.UserFilterStore, p FilterPatch) state.UserFilters {
	if p.Size != nil {
		store.SetSize(*p.Size)
	}
	if p.Search != nil {
		store.SetSearch(*p.Search)
	}
	if p.Page != nil {
		store.SetPage(*p.Page)
	}
	return store.Get()
}

func applyLoanPatch(store *state.LoanFilterStore, p FilterPatch) state.LoanFilters {
	if p.Size != nil {
		store.SetSize(*p.Size)
	}
	if p.Status != nil {
		store.SetStatus(*p.Status)
	}
	if p.UserID != nil {
		store.SetUserID(*p.UserID)
	}
	if p.Page != nil {
		store.SetPage(*p.Page)
	}
	return store.Get()
}

func applyCatalogPatch(store *state.CatalogFilterStore, p FilterPatch) state.CatalogFilters {
	if p.Size != nil {
		store.SetSize(*p.Size)
	}
	if p.Search != nil {
		store.SetSearch(*p.Search)
	}
	if p.Author != nil {
		store.SetAuthor(*p.Author)
	}
	if p.Genre != nil {
		store.SetGenre(*p.Genre)
	}
	if p.Availability != nil {
		store.SetAvailability(*p.Availability)
	}
	if p.Page != nil {
		store.SetPage(*p.Page)
	}
	return store.Get()
}

// FilterHandler reads and edits the filter stores of the caller's session.
type FilterHandler struct{}

func NewFilterHandler() *FilterHandler {
	return &FilterHandler{}
}

func (h *FilterHandler) GetFilters(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var filters interface{}
	switch c.Param("feature") {
	case FeatureBooks:
		filters = sess.Books.Get()
	case FeatureUsers:
		filters = sess.Users.Get()
	case FeatureLoans:
		filters = sess.Loans.Get()
	case FeatureCatalog:
		filters = sess.Catalog.Get()
	default:
		unknownFeature(c)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: filters})
}

func (h *FilterHandler) UpdateFilters(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var patch FilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	if err := patch.validate(); err != nil {
		respondError(c, err, "Invalid filters")
		return
	}

	var filters interface{}
	switch c.Param("feature") {
	case FeatureBooks:
		filters = applyBookPatch(sess.Books, patch)
	case FeatureUsers:
		filters = applyUserPatch(sess.Users, patch)
	case FeatureLoans:
		filters = applyLoanPatch(sess.Loans, patch)
	case FeatureCatalog:
		filters = applyCatalogPatch(sess.Catalog, patch)
	default:
		unknownFeature(c)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: filters})
}

func (h *FilterHandler) ResetFilters(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var filters interface{}
	switch c.Param("feature") {
	case FeatureBooks:
		filters = sess.Books.Reset()
	case FeatureUsers:
		filters = sess.Users.Reset()
	case FeatureLoans:
		filters = sess.Loans.Reset()
	case FeatureCatalog:
		filters = sess.Catalog.Reset()
	default:
		unknownFeature(c)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: filters})
}

func unknownFeature(c *gin.Context) {
	abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Unknown filter feature "+strconv.Quote(c.Param("feature")), nil)
}
