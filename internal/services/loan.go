package services

import (
	"context"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
)

type LoanStore interface {
	ListLoans(ctx context.Context, page, size int, filters repository.LoanFilters) (*models.Page[models.Loan], error)
	All(ctx context.Context, filters repository.LoanFilters) ([]models.Loan, error)
	GetByID(ctx context.Context, id int64) (models.Loan, error)
	Create(ctx context.Context, req models.CreateLoanRequest) (models.Loan, error)
	Remove(ctx context.Context, id int64) error
	ReturnLoan(ctx context.Context, id int64) (models.Loan, error)
	CountLoans(ctx context.Context, status models.LoanStatus) (int64, error)
}

type LoanServiceInterface interface {
	ListLoans(ctx context.Context, page, size int, filters repository.LoanFilters) (*models.Page[models.Loan], error)
	AllLoans(ctx context.Context) ([]models.Loan, error)
	GetLoan(ctx context.Context, id int64) (models.Loan, error)
	CreateLoan(ctx context.Context, req models.CreateLoanRequest) (models.Loan, error)
	DeleteLoan(ctx context.Context, id int64) error
	ReturnLoan(ctx context.Context, id int64) (models.Loan, error)
	CountLoans(ctx context.Context, status models.LoanStatus) (int64, error)
}

type LoanService struct {
	store LoanStore
}

func NewLoanService(store LoanStore) *LoanService {
	return &LoanService{store: store}
}

func (s *LoanService) ListLoans(ctx context.Context, page, size int, filters repository.LoanFilters) (*models.Page[models.Loan], error) {
	if err := checkPaging(page, size); err != nil {
		return nil, err
	}
	if err := checkLoanStatus(filters.Status); err != nil {
		return nil, err
	}
	return s.store.ListLoans(ctx, page, size, filters)
}

func (s *LoanService) AllLoans(ctx context.Context) ([]models.Loan, error) {
	return s.store.All(ctx, repository.LoanFilters{})
}

func (s *LoanService) GetLoan(ctx context.Context, id int64) (models.Loan, error) {
	if err := checkID(id); err != nil {
		return models.Loan{}, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *LoanService) CreateLoan(ctx context.Context, req models.CreateLoanRequest) (models.Loan, error) {
	if err := models.Validate(req); err != nil {
		return models.Loan{}, err
	}
	return s.store.Create(ctx, req)
}

func (s *LoanService) DeleteLoan(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.store.Remove(ctx, id)
}

// ReturnLoan asks the server to close the loan. Whether it was still active
// is the server's call.
func (s *LoanService) ReturnLoan(ctx context.Context, id int64) (models.Loan, error) {
	if err := checkID(id); err != nil {
		return models.Loan{}, err
	}
	return s.store.ReturnLoan(ctx, id)
}

func (s *LoanService) CountLoans(ctx context.Context, status models.LoanStatus) (int64, error) {
	if err := checkLoanStatus(status); err != nil {
		return 0, err
	}
	return s.store.CountLoans(ctx, status)
}

func checkLoanStatus(status models.LoanStatus) error {
	if status != "" && !status.Valid() {
		return models.NewValidationError("status", "must be one of [ATIVO DEVOLVIDO ATRASADO]")
	}
	return nil
}
