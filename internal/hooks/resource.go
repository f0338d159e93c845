// Package hooks binds the services to the query cache. Every resource gets
// cached list and detail reads plus mutations that invalidate the resource
// family, and any coupled families, on success.
package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/query"
)

var ErrUnsupported = errors.New("operation not supported for this resource")

// Ops are the service calls a Resource wraps. Nil entries are unsupported.
type Ops[T, F, C, U any] struct {
	List   func(ctx context.Context, page, size int, filters F) (*models.Page[T], error)
	Get    func(ctx context.Context, id int64) (T, error)
	Create func(ctx context.Context, req C) (T, error)
	Update func(ctx context.Context, id int64, req U) (T, error)
	Delete func(ctx context.Context, id int64) error
}

// Resource is the query pipeline for one resource family.
type Resource[T, F, C, U any] struct {
	name   string
	client *query.Client
	ops    Ops[T, F, C, U]
	// coupled families are invalidated together with name.
	coupled []string
}

func NewResource[T, F, C, U any](client *query.Client, name string, ops Ops[T, F, C, U], coupled ...string) *Resource[T, F, C, U] {
	return &Resource[T, F, C, U]{
		name:    name,
		client:  client,
		ops:     ops,
		coupled: coupled,
	}
}

func (r *Resource[T, F, C, U]) Name() string {
	return r.name
}

// Families lists every resource family a mutation on r invalidates.
func (r *Resource[T, F, C, U]) Families() []string {
	return append([]string{r.name}, r.coupled...)
}

func (r *Resource[T, F, C, U]) ListKey(page, size int, filters F) query.Key {
	return query.NewKey(r.name, "list", page, size, filters)
}

func (r *Resource[T, F, C, U]) DetailKey(id int64) query.Key {
	return query.NewKey(r.name, "detail", id)
}

func (r *Resource[T, F, C, U]) List(ctx context.Context, page, size int, filters F) (*models.Page[T], error) {
	if r.ops.List == nil {
		return nil, fmt.Errorf("%s list: %w", r.name, ErrUnsupported)
	}
	return query.Get(ctx, r.client, r.ListKey(page, size, filters), func(ctx context.Context) (*models.Page[T], error) {
		return r.ops.List(ctx, page, size, filters)
	})
}

func (r *Resource[T, F, C, U]) WatchList(page, size int, filters F) *query.Observer {
	return r.client.Observe(r.ListKey(page, size, filters), func(ctx context.Context) (any, error) {
		return r.ops.List(ctx, page, size, filters)
	}, query.ObserveOptions{Disabled: r.ops.List == nil})
}

// Detail reads one item. Ids that are not positive are treated as not yet
// known: nothing is requested and query.ErrQueryDisabled is returned.
func (r *Resource[T, F, C, U]) Detail(ctx context.Context, id int64) (T, error) {
	var zero T
	if id <= 0 {
		return zero, query.ErrQueryDisabled
	}
	if r.ops.Get == nil {
		return zero, fmt.Errorf("%s detail: %w", r.name, ErrUnsupported)
	}
	return query.Get(ctx, r.client, r.DetailKey(id), func(ctx context.Context) (T, error) {
		return r.ops.Get(ctx, id)
	})
}

func (r *Resource[T, F, C, U]) WatchDetail(id int64) *query.Observer {
	return r.client.Observe(r.DetailKey(id), func(ctx context.Context) (any, error) {
		return r.ops.Get(ctx, id)
	}, query.ObserveOptions{Disabled: id <= 0 || r.ops.Get == nil})
}

func (r *Resource[T, F, C, U]) Create(ctx context.Context, req C) (T, error) {
	if r.ops.Create == nil {
		var zero T
		return zero, fmt.Errorf("%s create: %w", r.name, ErrUnsupported)
	}
	return query.Mutate(ctx, r.client, func(ctx context.Context) (T, error) {
		return r.ops.Create(ctx, req)
	}, r.Families()...)
}

func (r *Resource[T, F, C, U]) Update(ctx context.Context, id int64, req U) (T, error) {
	if r.ops.Update == nil {
		var zero T
		return zero, fmt.Errorf("%s update: %w", r.name, ErrUnsupported)
	}
	return query.Mutate(ctx, r.client, func(ctx context.Context) (T, error) {
		return r.ops.Update(ctx, id, req)
	}, r.Families()...)
}

func (r *Resource[T, F, C, U]) Remove(ctx context.Context, id int64) error {
	if r.ops.Delete == nil {
		return fmt.Errorf("%s delete: %w", r.name, ErrUnsupported)
	}
	_, err := query.Mutate(ctx, r.client, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.ops.Delete(ctx, id)
	}, r.Families()...)
	return err
}

// mutate runs an entity specific write with the same invalidation as the
// generic ones.
func mutate[T, F, C, U, R any](ctx context.Context, r *Resource[T, F, C, U], fn func(ctx context.Context) (R, error)) (R, error) {
	return query.Mutate(ctx, r.client, fn, r.Families()...)
}
