package services

import (
	"context"
	"net/url"

	"github.com/ngenohkevin/lmsdesk/internal/models"
)

type UserStore interface {
	ListUsers(ctx context.Context, page, size int, search string) (*models.Page[models.User], error)
	All(ctx context.Context, filters url.Values) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	Create(ctx context.Context, req models.CreateUserRequest) (models.User, error)
	Update(ctx context.Context, id int64, req models.UpdateUserRequest) (models.User, error)
	Remove(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)
	ToggleActive(ctx context.Context, id int64) (models.User, error)
}

type UserServiceInterface interface {
	ListUsers(ctx context.Context, page, size int, search string) (*models.Page[models.User], error)
	AllUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (models.User, error)
	UpdateUser(ctx context.Context, id int64, req models.UpdateUserRequest) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)
	ToggleActive(ctx context.Context, id int64) (models.User, error)
}

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) ListUsers(ctx context.Context, page, size int, search string) (*models.Page[models.User], error) {
	if err := checkPaging(page, size); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, page, size, search)
}

func (s *UserService) AllUsers(ctx context.Context) ([]models.User, error) {
	return s.store.All(ctx, nil)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (models.User, error) {
	if err := checkID(id); err != nil {
		return models.User{}, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (models.User, error) {
	if err := models.Validate(req); err != nil {
		return models.User{}, err
	}
	return s.store.Create(ctx, req)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, req models.UpdateUserRequest) (models.User, error) {
	if err := checkID(id); err != nil {
		return models.User{}, err
	}
	if err := models.Validate(req); err != nil {
		return models.User{}, err
	}
	return s.store.Update(ctx, id, req)
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.store.Remove(ctx, id)
}

func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.store.CountUsers(ctx)
}

func (s *UserService) ToggleActive(ctx context.Context, id int64) (models.User, error) {
	if err := checkID(id); err != nil {
		return models.User{}, err
	}
	return s.store.ToggleActive(ctx, id)
}
