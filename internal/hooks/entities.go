package hooks

import (
	"context"
	"io"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/query"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

// Families whose values are derived from another resource on the server.
const (
	FamilyUsersCount = "users-count"
	FamilyLoansCount = "loans-count"
)

type Books struct {
	*Resource[models.Book, repository.BookFilters, models.CreateBookRequest, models.UpdateBookRequest]
	svc services.BookServiceInterface
}

func NewBooks(client *query.Client, svc services.BookServiceInterface) *Books {
	return &Books{
		Resource: NewResource(client, repository.ResourceBooks, Ops[models.Book, repository.BookFilters, models.CreateBookRequest, models.UpdateBookRequest]{
			List:   svc.ListBooks,
			Get:    svc.GetBook,
			Create: svc.CreateBook,
			Update: svc.UpdateBook,
			Delete: svc.DeleteBook,
		}),
		svc: svc,
	}
}

// All is the whole catalog in one unpaged read.
func (b *Books) All(ctx context.Context) ([]models.Book, error) {
	return query.Get(ctx, b.client, query.NewKey(b.name, "all"), b.svc.AllBooks)
}

type Users struct {
	*Resource[models.User, string, models.CreateUserRequest, models.UpdateUserRequest]
	svc services.UserServiceInterface
}

func NewUsers(client *query.Client, svc services.UserServiceInterface) *Users {
	return &Users{
		Resource: NewResource(client, repository.ResourceUsers, Ops[models.User, string, models.CreateUserRequest, models.UpdateUserRequest]{
			List:   svc.ListUsers,
			Get:    svc.GetUser,
			Create: svc.CreateUser,
			Update: svc.UpdateUser,
			Delete: svc.DeleteUser,
		}, FamilyUsersCount),
		svc: svc,
	}
}

func (u *Users) All(ctx context.Context) ([]models.User, error) {
	return query.Get(ctx, u.client, query.NewKey(u.name, "all"), u.svc.AllUsers)
}

func (u *Users) CountKey() query.Key {
	return query.NewKey(FamilyUsersCount, "count")
}

func (u *Users) Count(ctx context.Context) (int64, error) {
	return query.Get(ctx, u.client, u.CountKey(), u.svc.CountUsers)
}

func (u *Users) ToggleActive(ctx context.Context, id int64) (models.User, error) {
	return mutate(ctx, u.Resource, func(ctx context.Context) (models.User, error) {
		return u.svc.ToggleActive(ctx, id)
	})
}

type Loans struct {
	*Resource[models.Loan, repository.LoanFilters, models.CreateLoanRequest, struct{}]
	svc services.LoanServiceInterface
}

// NewLoans couples loans with their counts and with books, whose available
// quantity the server adjusts on every loan change.
func NewLoans(client *query.Client, svc services.LoanServiceInterface) *Loans {
	return &Loans{
		Resource: NewResource(client, repository.ResourceLoans, Ops[models.Loan, repository.LoanFilters, models.CreateLoanRequest, struct{}]{
			List:   svc.ListLoans,
			Get:    svc.GetLoan,
			Create: svc.CreateLoan,
			Delete: svc.DeleteLoan,
		}, FamilyLoansCount, repository.ResourceBooks),
		svc: svc,
	}
}

func (l *Loans) All(ctx context.Context) ([]models.Loan, error) {
	return query.Get(ctx, l.client, query.NewKey(l.name, "all"), l.svc.AllLoans)
}

func (l *Loans) CountKey(status models.LoanStatus) query.Key {
	return query.NewKey(FamilyLoansCount, "count", string(status))
}

func (l *Loans) Count(ctx context.Context, status models.LoanStatus) (int64, error) {
	return query.Get(ctx, l.client, l.CountKey(status), func(ctx context.Context) (int64, error) {
		return l.svc.CountLoans(ctx, status)
	})
}

func (l *Loans) Return(ctx context.Context, id int64) (models.Loan, error) {
	return mutate(ctx, l.Resource, func(ctx context.Context) (models.Loan, error) {
		return l.svc.ReturnLoan(ctx, id)
	})
}

type Contents struct {
	*Resource[models.Content, struct{}, models.ContentRequest, models.ContentRequest]
	svc services.ContentServiceInterface
}

func NewContents(client *query.Client, svc services.ContentServiceInterface) *Contents {
	return &Contents{
		Resource: NewResource(client, repository.ResourceContents, Ops[models.Content, struct{}, models.ContentRequest, models.ContentRequest]{
			Get:    svc.GetContent,
			Create: svc.CreateContent,
			Update: svc.UpdateContent,
			Delete: svc.DeleteContent,
		}),
		svc: svc,
	}
}

// List returns every article, drafts included. The endpoint is not paged.
func (c *Contents) List(ctx context.Context) ([]models.Content, error) {
	return query.Get(ctx, c.client, query.NewKey(c.name, "list"), c.svc.ListContents)
}

func (c *Contents) WatchAll() *query.Observer {
	return c.client.Observe(query.NewKey(c.name, "list"), func(ctx context.Context) (any, error) {
		return c.svc.ListContents(ctx)
	}, query.ObserveOptions{})
}

// Published returns only published articles. It lives in the contents
// family so any content mutation refreshes it.
func (c *Contents) Published(ctx context.Context) ([]models.Content, error) {
	return query.Get(ctx, c.client, query.NewKey(c.name, "published"), func(ctx context.Context) ([]models.Content, error) {
		all, err := c.svc.ListContents(ctx)
		if err != nil {
			return nil, err
		}
		published := make([]models.Content, 0, len(all))
		for _, item := range all {
			if item.Published() {
				published = append(published, item)
			}
		}
		return published, nil
	})
}

// UploadMedia is not cached and invalidates nothing.
func (c *Contents) UploadMedia(ctx context.Context, filename string, file io.Reader) (models.MediaUpload, error) {
	return c.svc.UploadMedia(ctx, filename, file)
}

// Set bundles the pipelines of every resource. It is built once at start-up
// and shared by all consumers.
type Set struct {
	Books    *Books
	Users    *Users
	Loans    *Loans
	Contents *Contents
}

func NewSet(
	client *query.Client,
	books services.BookServiceInterface,
	users services.UserServiceInterface,
	loans services.LoanServiceInterface,
	contents services.ContentServiceInterface,
) *Set {
	return &Set{
		Books:    NewBooks(client, books),
		Users:    NewUsers(client, users),
		Loans:    NewLoans(client, loans),
		Contents: NewContents(client, contents),
	}
}
