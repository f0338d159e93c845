package services

import (
	"context"
	"net/url"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
)

// BookStore defines the book operations the service forwards to
type BookStore interface {
	ListBooks(ctx context.Context, page, size int, filters repository.BookFilters) (*models.Page[models.Book], error)
	All(ctx context.Context, filters url.Values) ([]models.Book, error)
	GetByID(ctx context.Context, id int64) (models.Book, error)
	Create(ctx context.Context, req models.CreateBookRequest) (models.Book, error)
	Update(ctx context.Context, id int64, req models.UpdateBookRequest) (models.Book, error)
	Remove(ctx context.Context, id int64) error
}

// BookServiceInterface defines the interface for book service operations
type BookServiceInterface interface {
	ListBooks(ctx context.Context, page, size int, filters repository.BookFilters) (*models.Page[models.Book], error)
	AllBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (models.Book, error)
	CreateBook(ctx context.Context, req models.CreateBookRequest) (models.Book, error)
	UpdateBook(ctx context.Context, id int64, req models.UpdateBookRequest) (models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BookService forwards book operations to the repository after validating input
type BookService struct {
	store BookStore
}

// NewBookService creates a new book service
func NewBookService(store BookStore) *BookService {
	return &BookService{store: store}
}

func (s *BookService) ListBooks(ctx context.Context, page, size int, filters repository.BookFilters) (*models.Page[models.Book], error) {
	if err := checkPaging(page, size); err != nil {
		return nil, err
	}
	return s.store.ListBooks(ctx, page, size, filters)
}

// AllBooks returns the complete catalog in a single unpaged call.
func (s *BookService) AllBooks(ctx context.Context) ([]models.Book, error) {
	return s.store.All(ctx, nil)
}

func (s *BookService) GetBook(ctx context.Context, id int64) (models.Book, error) {
	if err := checkID(id); err != nil {
		return models.Book{}, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *BookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (models.Book, error) {
	if err := models.Validate(req); err != nil {
		return models.Book{}, err
	}
	return s.store.Create(ctx, req)
}

func (s *BookService) UpdateBook(ctx context.Context, id int64, req models.UpdateBookRequest) (models.Book, error) {
	if err := checkID(id); err != nil {
		return models.Book{}, err
	}
	if err := models.Validate(req); err != nil {
		return models.Book{}, err
	}
	return s.store.Update(ctx, id, req)
}

func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.store.Remove(ctx, id)
}

func checkID(id int64) error {
	if id <= 0 {
		return models.NewValidationError("id", "must be a positive number")
	}
	return nil
}

func checkPaging(page, size int) error {
	if page < 0 {
		return models.NewValidationError("page", "must not be negative")
	}
	if size < 0 {
		return models.NewValidationError("size", "must not be negative")
	}
	return nil
}
