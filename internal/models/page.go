package models

import "fmt"

// Page is one slice of a paginated listing. Page numbers are 0-indexed.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](content []T, page, size int, totalElements int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: totalElements,
		TotalPages:    TotalPagesFor(totalElements, size),
	}
}

// TotalPagesFor returns ceil(totalElements/size).
func TotalPagesFor(totalElements int64, size int) int {
	if size <= 0 || totalElements <= 0 {
		return 0
	}
	return int((totalElements + int64(size) - 1) / int64(size))
}

// Validate checks the pagination bounds a well-formed page must satisfy.
func (p *Page[T]) Validate() error {
	if p.Size > 0 && len(p.Content) > p.Size {
		return fmt.Errorf("page holds %d items but size is %d", len(p.Content), p.Size)
	}
	if want := TotalPagesFor(p.TotalElements, p.Size); p.TotalPages != want {
		return fmt.Errorf("totalPages is %d, expected %d for %d elements of size %d",
			p.TotalPages, want, p.TotalElements, p.Size)
	}
	return nil
}

// HasNext reports whether a following page exists.
func (p *Page[T]) HasNext() bool {
	return p.Page+1 < p.TotalPages
}
