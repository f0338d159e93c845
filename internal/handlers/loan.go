package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
)

// LoanHandler serves loans. Loans cannot be edited; the return action is the
// only transition a client drives.
type LoanHandler struct {
	crud[models.Loan, repository.LoanFilters, models.CreateLoanRequest, struct{}]
	loans *hooks.Loans
}

func NewLoanHandler(loans *hooks.Loans) *LoanHandler {
	return &LoanHandler{
		crud:  crud[models.Loan, repository.LoanFilters, models.CreateLoanRequest, struct{}]{resource: loans.Resource, label: "loan"},
		loans: loans,
	}
}

func (h *LoanHandler) ListLoans(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	patch := patchFromQuery(c)
	if err := patch.validate(); err != nil {
		respondError(c, err, "Invalid filters")
		return
	}
	filters := applyLoanPatch(sess.Loans, patch)

	page, err := h.loans.List(c.Request.Context(), filters.Page, filters.Size, filters.Query())
	if err != nil {
		respondError(c, err, "Failed to list loans")
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

// CountLoans counts loans, optionally in one status.
func (h *LoanHandler) CountLoans(c *gin.Context) {
	status := models.LoanStatus(c.Query("status"))

	count, err := h.loans.Count(c.Request.Context(), status)
	if err != nil {
		respondError(c, err, "Failed to count loans")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    gin.H{"status": status, "count": count},
	})
}

func (h *LoanHandler) ReturnLoan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	loan, err := h.loans.Return(c.Request.Context(), id)
	if err != nil {
		respondMutationError(c, err, "Failed to return loan")
		return
	}

	notifySuccess(c, "Loan returned")
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    loan,
		Message: "Loan returned successfully",
	})
}
