package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

// MockBookService is a mock implementation of BookServiceInterface
type MockBookService struct {
	mock.Mock
}

func (m *MockBookService) ListBooks(ctx context.Context, page, size int, filters repository.BookFilters) (*models.Page[models.Book], error) {
	args := m.Called(ctx, page, size, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Book]), args.Error(1)
}

func (m *MockBookService) AllBooks(ctx context.Context) ([]models.Book, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Book), args.Error(1)
}

func (m *MockBookService) GetBook(ctx context.Context, id int64) (models.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Book), args.Error(1)
}

func (m *MockBookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (models.Book, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Book), args.Error(1)
}

func (m *MockBookService) UpdateBook(ctx context.Context, id int64, req models.UpdateBookRequest) (models.Book, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.Book), args.Error(1)
}

func (m *MockBookService) DeleteBook(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ListUsers(ctx context.Context, page, size int, search string) (*models.Page[models.User], error) {
	args := m.Called(ctx, page, size, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.User]), args.Error(1)
}

func (m *MockUserService) AllUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id int64) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (models.User, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, req models.UpdateUserRequest) (models.User, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserService) ToggleActive(ctx context.Context, id int64) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) ListLoans(ctx context.Context, page, size int, filters repository.LoanFilters) (*models.Page[models.Loan], error) {
	args := m.Called(ctx, page, size, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Loan]), args.Error(1)
}

func (m *MockLoanService) AllLoans(ctx context.Context) ([]models.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, id int64) (models.Loan, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Loan), args.Error(1)
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req models.CreateLoanRequest) (models.Loan, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Loan), args.Error(1)
}

func (m *MockLoanService) DeleteLoan(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLoanService) ReturnLoan(ctx context.Context, id int64) (models.Loan, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Loan), args.Error(1)
}

func (m *MockLoanService) CountLoans(ctx context.Context, status models.LoanStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) ListContents(ctx context.Context) ([]models.Content, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Content), args.Error(1)
}

func (m *MockContentService) GetContent(ctx context.Context, id int64) (models.Content, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Content), args.Error(1)
}

func (m *MockContentService) CreateContent(ctx context.Context, req models.ContentRequest) (models.Content, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Content), args.Error(1)
}

func (m *MockContentService) UpdateContent(ctx context.Context, id int64, req models.ContentRequest) (models.Content, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.Content), args.Error(1)
}

func (m *MockContentService) DeleteContent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentService) UploadMedia(ctx context.Context, filename string, file io.Reader) (models.MediaUpload, error) {
	args := m.Called(ctx, filename, file)
	return args.Get(0).(models.MediaUpload), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JWTClaims), args.Error(1)
}

func (m *MockAuthService) BlacklistToken(ctx context.Context, tokenString string) error {
	return m.Called(ctx, tokenString).Error(0)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, resource, format string) (*services.ExportFile, error) {
	args := m.Called(ctx, resource, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportFile), args.Error(1)
}
