// Package state holds per-session UI state: listing filters, theme and
// notifications. Page numbers are 0-indexed throughout; only the public
// catalog's URL form is 1-indexed.
package state

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
)

const DefaultPageSize = repository.DefaultPageSize

// store is a mutex guarded value with resettable defaults. onChange, when
// set, is called outside the lock whenever an update changes the value.
type store[F comparable] struct {
	mu       sync.RWMutex
	defaults F
	current  F
	onChange func(F)
}

func newStore[F comparable](defaults F) *store[F] {
	return &store[F]{defaults: defaults, current: defaults}
}

func (s *store[F]) get() F {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *store[F]) update(fn func(f *F)) F {
	s.mu.Lock()
	prev := s.current
	fn(&s.current)
	next := s.current
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil && next != prev {
		onChange(next)
	}
	return next
}

func (s *store[F]) reset() F {
	return s.update(func(f *F) { *f = s.defaults })
}

// restore replaces the value without notifying onChange.
func (s *store[F]) restore(v F) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v
}

type BookFilters struct {
	Page   int    `json:"page"`
	Size   int    `json:"size"`
	Search string `json:"search"`
}

func (f BookFilters) Query() repository.BookFilters {
	return repository.BookFilters{Search: f.Search}
}

// BookFilterStore backs the admin book table. Changing anything but the page
// returns to the first page.
type BookFilterStore struct {
	s *store[BookFilters]
}

func NewBookFilterStore() *BookFilterStore {
	return &BookFilterStore{s: newStore(BookFilters{Size: DefaultPageSize})}
}

func (b *BookFilterStore) Get() BookFilters { return b.s.get() }
func (b *BookFilterStore) Reset() BookFilters { return b.s.reset() }

func (b *BookFilterStore) SetPage(page int) BookFilters {
	return b.s.update(func(f *BookFilters) { f.Page = clampPage(page) })
}

func (b *BookFilterStore) SetSize(size int) BookFilters {
	return b.s.update(func(f *BookFilters) { f.Size = clampSize(size); f.Page = 0 })
}

func (b *BookFilterStore) SetSearch(search string) BookFilters {
	return b.s.update(func(f *BookFilters) { f.Search = search; f.Page = 0 })
}

type UserFilters struct {
	Page   int    `json:"page"`
	Size   int    `json:"size"`
	Search string `json:"search"`
}

type UserFilterStore struct {
	s *store[UserFilters]
}

func NewUserFilterStore() *UserFilterStore {
	return &UserFilterStore{s: newStore(UserFilters{Size: DefaultPageSize})}
}

func (u *UserFilterStore) Get() UserFilters { return u.s.get() }
func (u *UserFilterStore) Reset() UserFilters { return u.s.reset() }

func (u *UserFilterStore) SetPage(page int) UserFilters {
	return u.s.update(func(f *UserFilters) { f.Page = clampPage(page) })
}

func (u *UserFilterStore) SetSize(size int) UserFilters {
	return u.s.update(func(f *UserFilters) { f.Size = clampSize(size); f.Page = 0 })
}

func (u *UserFilterStore) SetSearch(search string) UserFilters {
	return u.s.update(func(f *UserFilters) { f.Search = search; f.Page = 0 })
}

type LoanFilters struct {
	Page   int               `json:"page"`
	Size   int               `json:"size"`
	Status models.LoanStatus `json:"status,omitempty"`
	UserID int64             `json:"userId,omitempty"`
}

func (f LoanFilters) Query() repository.LoanFilters {
	return repository.LoanFilters{Status: f.Status, UserID: f.UserID}
}

type LoanFilterStore struct {
	s *store[LoanFilters]
}

func NewLoanFilterStore() *LoanFilterStore {
	return &LoanFilterStore{s: newStore(LoanFilters{Size: DefaultPageSize})}
}

func (l *LoanFilterStore) Get() LoanFilters { return l.s.get() }
func (l *LoanFilterStore) Reset() LoanFilters { return l.s.reset() }

func (l *LoanFilterStore) SetPage(page int) LoanFilters {
	return l.s.update(func(f *LoanFilters) { f.Page = clampPage(page) })
}

func (l *LoanFilterStore) SetSize(size int) LoanFilters {
	return l.s.update(func(f *LoanFilters) { f.Size = clampSize(size); f.Page = 0 })
}

// SetStatus filters by status; the empty status clears the filter.
func (l *LoanFilterStore) SetStatus(status models.LoanStatus) LoanFilters {
	return l.s.update(func(f *LoanFilters) { f.Status = status; f.Page = 0 })
}

// SetUserID filters by borrower; zero clears the filter.
func (l *LoanFilterStore) SetUserID(userID int64) LoanFilters {
	return l.s.update(func(f *LoanFilters) { f.UserID = max(userID, 0); f.Page = 0 })
}

const (
	AvailabilityAll         = "all"
	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
)

// CatalogFilters drive the public catalog.
type CatalogFilters struct {
	Search       string `json:"search"`
	Author       string `json:"author"`
	Genre        string `json:"genre"`
	Availability string `json:"availability"`
	Page         int    `json:"page"`
	Size         int    `json:"size"`
}

func DefaultCatalogFilters() CatalogFilters {
	return CatalogFilters{Availability: AvailabilityAll, Size: DefaultPageSize}
}

func (f CatalogFilters) Query() repository.BookFilters {
	return repository.BookFilters{
		Search:       f.Search,
		Author:       f.Author,
		Genre:        f.Genre,
		Availability: f.Availability,
	}
}

// ToQuery renders the filters as URL parameters. Pages are 1-indexed there
// and default values are left out.
func (f CatalogFilters) ToQuery() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Author != "" {
		v.Set("author", f.Author)
	}
	if f.Genre != "" {
		v.Set("genre", f.Genre)
	}
	if f.Availability != "" && f.Availability != AvailabilityAll {
		v.Set("availability", f.Availability)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page+1))
	}
	if f.Size > 0 && f.Size != DefaultPageSize {
		v.Set("size", strconv.Itoa(f.Size))
	}
	return v
}

type CatalogFilterStore struct {
	s *store[CatalogFilters]
}

func NewCatalogFilterStore() *CatalogFilterStore {
	return &CatalogFilterStore{s: newStore(DefaultCatalogFilters())}
}

func (c *CatalogFilterStore) Get() CatalogFilters { return c.s.get() }
func (c *CatalogFilterStore) Reset() CatalogFilters { return c.s.reset() }

func (c *CatalogFilterStore) SetSearch(search string) CatalogFilters {
	return c.s.update(func(f *CatalogFilters) { f.Search = search; f.Page = 0 })
}

func (c *CatalogFilterStore) SetAuthor(author string) CatalogFilters {
	return c.s.update(func(f *CatalogFilters) { f.Author = author; f.Page = 0 })
}

func (c *CatalogFilterStore) SetGenre(genre string) CatalogFilters {
	return c.s.update(func(f *CatalogFilters) { f.Genre = genre; f.Page = 0 })
}

func (c *CatalogFilterStore) SetAvailability(availability string) CatalogFilters {
	return c.s.update(func(f *CatalogFilters) { f.Availability = normalizeAvailability(availability); f.Page = 0 })
}

func (c *CatalogFilterStore) SetSize(size int) CatalogFilters {
	return c.s.update(func(f *CatalogFilters) { f.Size = clampSize(size); f.Page = 0 })
}

func (c *CatalogFilterStore) SetPage(page int) CatalogFilters {
	return c.s.update(func(f *CatalogFilters) { f.Page = clampPage(page) })
}

// ApplyQuery syncs the store from URL parameters. Parameters that are present
// replace the stored value; the page comes from the URL as given, or the
// first page when absent.
func (c *CatalogFilterStore) ApplyQuery(q url.Values) CatalogFilters {
	return c.s.update(func(f *CatalogFilters) {
		if q.Has("search") {
			f.Search = strings.TrimSpace(q.Get("search"))
		}
		if q.Has("author") {
			f.Author = q.Get("author")
		}
		if q.Has("genre") {
			f.Genre = q.Get("genre")
		}
		if q.Has("availability") {
			f.Availability = normalizeAvailability(q.Get("availability"))
		}
		if size, err := strconv.Atoi(q.Get("size")); err == nil {
			f.Size = clampSize(size)
		}

		f.Page = 0
		if page, err := strconv.Atoi(q.Get("page")); err == nil {
			f.Page = clampPage(page - 1)
		}
	})
}

// OnChange registers fn to be called after every change of value.
func (c *CatalogFilterStore) OnChange(fn func(CatalogFilters)) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.onChange = fn
}

func (c *CatalogFilterStore) restore(f CatalogFilters) {
	f.Availability = normalizeAvailability(f.Availability)
	f.Size = clampSize(f.Size)
	f.Page = clampPage(f.Page)
	c.s.restore(f)
}

func normalizeAvailability(v string) string {
	switch v {
	case AvailabilityAvailable, AvailabilityUnavailable:
		return v
	}
	return AvailabilityAll
}

func clampPage(page int) int {
	return max(page, 0)
}

func clampSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	return min(size, 100)
}
