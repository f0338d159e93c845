package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ngenohkevin/lmsdesk/internal/apiclient"
	"github.com/ngenohkevin/lmsdesk/internal/models"
)

const (
	ResourceBooks    = "books"
	ResourceUsers    = "users"
	ResourceLoans    = "loans"
	ResourceContents = "contents"
)

type BookRepository struct {
	*Resource[models.Book, models.CreateBookRequest, models.UpdateBookRequest]
}

func NewBookRepository(client Doer) *BookRepository {
	return &BookRepository{
		Resource: NewResource[models.Book, models.CreateBookRequest, models.UpdateBookRequest](
			client, Spec{Name: ResourceBooks, BasePath: "/books"}),
	}
}

// BookFilters are the listing filters the books endpoint understands.
type BookFilters struct {
	Search       string
	Author       string
	Genre        string
	Availability string
}

func (f BookFilters) Values() url.Values {
	v := url.Values{}
	v.Set("search", f.Search)
	v.Set("author", f.Author)
	v.Set("genre", f.Genre)
	if f.Availability != "" && f.Availability != "all" {
		v.Set("availability", f.Availability)
	}
	return v
}

func (r *BookRepository) ListBooks(ctx context.Context, page, size int, filters BookFilters) (*models.Page[models.Book], error) {
	return r.List(ctx, ListParams{Page: page, Size: size, Filters: filters.Values()})
}

type UserRepository struct {
	*Resource[models.User, models.CreateUserRequest, models.UpdateUserRequest]
}

func NewUserRepository(client Doer) *UserRepository {
	return &UserRepository{
		Resource: NewResource[models.User, models.CreateUserRequest, models.UpdateUserRequest](
			client, Spec{Name: ResourceUsers, BasePath: "/users"}),
	}
}

func (r *UserRepository) ListUsers(ctx context.Context, page, size int, search string) (*models.Page[models.User], error) {
	return r.List(ctx, ListParams{Page: page, Size: size, Filters: url.Values{"search": {search}}})
}

func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.Count(ctx, nil)
}

// ToggleActive flips the user's active flag server-side.
func (r *UserRepository) ToggleActive(ctx context.Context, id int64) (models.User, error) {
	return r.Patch(ctx, id, "active")
}

// LoanRepository exposes only the operations the loans endpoint supports;
// loans are never edited in place.
type LoanRepository struct {
	res *Resource[models.Loan, models.CreateLoanRequest, struct{}]
}

func NewLoanRepository(client Doer) *LoanRepository {
	return &LoanRepository{
		res: NewResource[models.Loan, models.CreateLoanRequest, struct{}](
			client, Spec{Name: ResourceLoans, BasePath: "/loans"}),
	}
}

type LoanFilters struct {
	Status models.LoanStatus
	UserID int64
}

func (f LoanFilters) Values() url.Values {
	v := url.Values{}
	v.Set("status", string(f.Status))
	if f.UserID > 0 {
		v.Set("userId", strconv.FormatInt(f.UserID, 10))
	}
	return v
}

func (r *LoanRepository) Name() string { return r.res.Name() }

func (r *LoanRepository) ListLoans(ctx context.Context, page, size int, filters LoanFilters) (*models.Page[models.Loan], error) {
	return r.res.List(ctx, ListParams{Page: page, Size: size, Filters: filters.Values()})
}

func (r *LoanRepository) All(ctx context.Context, filters LoanFilters) ([]models.Loan, error) {
	return r.res.All(ctx, filters.Values())
}

func (r *LoanRepository) GetByID(ctx context.Context, id int64) (models.Loan, error) {
	return r.res.GetByID(ctx, id)
}

func (r *LoanRepository) Create(ctx context.Context, req models.CreateLoanRequest) (models.Loan, error) {
	return r.res.Create(ctx, req)
}

func (r *LoanRepository) Remove(ctx context.Context, id int64) error {
	return r.res.Remove(ctx, id)
}

// ReturnLoan moves an active loan to returned and stamps its return date.
func (r *LoanRepository) ReturnLoan(ctx context.Context, id int64) (models.Loan, error) {
	return r.res.Patch(ctx, id, "return")
}

// CountLoans counts loans, optionally restricted to one status.
func (r *LoanRepository) CountLoans(ctx context.Context, status models.LoanStatus) (int64, error) {
	var params url.Values
	if status != "" {
		params = url.Values{"status": {string(status)}}
	}
	return r.res.Count(ctx, params)
}

type ContentRepository struct {
	*Resource[models.Content, models.ContentRequest, models.ContentRequest]
	client Doer
}

func NewContentRepository(client Doer) *ContentRepository {
	return &ContentRepository{
		Resource: NewResource[models.Content, models.ContentRequest, models.ContentRequest](
			client, Spec{Name: ResourceContents, BasePath: "/contents"}),
		client: client,
	}
}

// ListContents returns every article; the contents endpoint is not paginated.
func (r *ContentRepository) ListContents(ctx context.Context) ([]models.Content, error) {
	resp, err := r.client.Request(ctx, http.MethodGet, "/contents", apiclient.RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}

	var items []models.Content
	if err := apiclient.Decode(resp, &items); err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	if items == nil {
		items = []models.Content{}
	}
	return items, nil
}

// UploadMedia posts a file to the media endpoint under the "file" field.
func (r *ContentRepository) UploadMedia(ctx context.Context, filename string, file io.Reader) (models.MediaUpload, error) {
	var media models.MediaUpload

	resp, err := r.client.Upload(ctx, "/media", "file", filename, file)
	if err != nil {
		return media, fmt.Errorf("failed to upload media: %w", err)
	}
	if err := apiclient.Decode(resp, &media); err != nil {
		return media, fmt.Errorf("failed to upload media: %w", err)
	}
	return media, nil
}
