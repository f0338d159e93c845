// Package repository translates domain operations into calls against the
// library REST API. It holds no state and applies no business rules.
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

// UnpagedSentinel is the page value the library API reads as "return every
// record as a bare array". Only All sends it.
const UnpagedSentinel = -1

const DefaultPageSize = 10

// Doer is the subset of the API client the repositories need.
type Doer interface {
	Request(ctx context.Context, method, path string, opts apiclient.RequestOptions) (*apiclient.Response, error)
	Upload(ctx context.Context, path, field, filename string, r io.Reader) (*apiclient.Response, error)
}

// Spec names a REST resource and where it lives.
type Spec struct {
	Name     string
	BasePath string
}

type ListParams struct {
	Page    int
	Size    int
	Filters url.Values
}

// Query encodes the params the way the library API expects them. Empty
// filter values are dropped.
func (p ListParams) Query() url.Values {
	size := p.Size
	if size <= 0 {
		size = DefaultPageSize
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(size))
	for key, values := range p.Filters {
		for _, v := range values {
			if v != "" {
				q.Add(key, v)
			}
		}
	}
	return q
}

// Resource implements the CRUD surface shared by every entity. T is the
// record type, C the create payload and U the update payload.
type Resource[T, C, U any] struct {
	client Doer
	spec   Spec
}

func NewResource[T, C, U any](client Doer, spec Spec) *Resource[T, C, U] {
	return &Resource[T, C, U]{client: client, spec: spec}
}

func (r *Resource[T, C, U]) Name() string {
	return r.spec.Name
}

func (r *Resource[T, C, U]) List(ctx context.Context, params ListParams) (*models.Page[T], error) {
	if params.Page < 0 {
		return nil, models.NewValidationError("page", "must not be negative; use All for an unpaged listing")
	}

	var page models.Page[T]
	if err := r.get(ctx, r.spec.BasePath, params.Query(), &page); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.spec.Name, err)
	}
	if page.Content == nil {
		page.Content = []T{}
	}
	// Older endpoints omit totalPages.
	if page.TotalPages == 0 && page.TotalElements > 0 {
		page.TotalPages = models.TotalPagesFor(page.TotalElements, page.Size)
	}
	return &page, nil
}

// All fetches every record in one unpaged request.
func (r *Resource[T, C, U]) All(ctx context.Context, filters url.Values) ([]T, error) {
	q := url.Values{}
	for key, values := range filters {
		for _, v := range values {
			if v != "" {
				q.Add(key, v)
			}
		}
	}
	q.Set("page", strconv.Itoa(UnpagedSentinel))

	var items []T
	if err := r.get(ctx, r.spec.BasePath, q, &items); err != nil {
		return nil, fmt.Errorf("failed to list all %s: %w", r.spec.Name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T, C, U]) GetByID(ctx context.Context, id int64) (T, error) {
	var item T
	if err := r.get(ctx, r.itemPath(id), nil, &item); err != nil {
		return item, fmt.Errorf("failed to get %s %d: %w", r.spec.Name, id, err)
	}
	return item, nil
}

func (r *Resource[T, C, U]) Create(ctx context.Context, data C) (T, error) {
	var item T
	if err := r.send(ctx, http.MethodPost, r.spec.BasePath, data, &item); err != nil {
		return item, fmt.Errorf("failed to create %s: %w", r.spec.Name, err)
	}
	return item, nil
}

// Update sends a PUT. Fields left out of data are not touched by the server.
func (r *Resource[T, C, U]) Update(ctx context.Context, id int64, data U) (T, error) {
	var item T
	if err := r.send(ctx, http.MethodPut, r.itemPath(id), data, &item); err != nil {
		return item, fmt.Errorf("failed to update %s %d: %w", r.spec.Name, id, err)
	}
	return item, nil
}

func (r *Resource[T, C, U]) Remove(ctx context.Context, id int64) error {
	if _, err := r.client.Request(ctx, http.MethodDelete, r.itemPath(id), apiclient.RequestOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", r.spec.Name, id, err)
	}
	return nil
}

// Patch issues a body-less PATCH to a sub-path of an item, e.g. /loans/42/return.
func (r *Resource[T, C, U]) Patch(ctx context.Context, id int64, action string) (T, error) {
	var item T
	if err := r.send(ctx, http.MethodPatch, r.itemPath(id)+"/"+action, nil, &item); err != nil {
		return item, fmt.Errorf("failed to %s %s %d: %w", action, r.spec.Name, id, err)
	}
	return item, nil
}

// Count reads a bare number from <base>/count.
func (r *Resource[T, C, U]) Count(ctx context.Context, params url.Values) (int64, error) {
	var count int64
	if err := r.get(ctx, r.spec.BasePath+"/count", params, &count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.spec.Name, err)
	}
	return count, nil
}

func (r *Resource[T, C, U]) itemPath(id int64) string {
	return r.spec.BasePath + "/" + strconv.FormatInt(id, 10)
}

func (r *Resource[T, C, U]) get(ctx context.Context, path string, params url.Values, dst any) error {
	resp, err := r.client.Request(ctx, http.MethodGet, path, apiclient.RequestOptions{Params: params})
	if err != nil {
		return err
	}
	return apiclient.Decode(resp, dst)
}

func (r *Resource[T, C, U]) send(ctx context.Context, method, path string, body any, dst any) error {
	resp, err := r.client.Request(ctx, method, path, apiclient.RequestOptions{Body: body})
	if err != nil {
		return err
	}
	return apiclient.Decode(resp, dst)
}
