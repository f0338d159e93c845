package state

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/ngenohkevin/lmsdesk/internal/debounce"
)

const persistTimeout = 2 * time.Second

// Session is the state of one browser session. Only the catalog filters and
// the theme are persisted; the admin filters live as long as the session.
type Session struct {
	ID            string
	Books         *BookFilterStore
	Users         *UserFilterStore
	Loans         *LoanFilterStore
	Catalog       *CatalogFilterStore
	Theme         *ThemeStore
	Notifications *NotificationStore

	search    *debounce.Debouncer[string]
	persister Persister
	logger    *slog.Logger
}

func newSession(id string, searchDelay time.Duration, persister Persister, logger *slog.Logger) *Session {
	s := &Session{
		ID:            id,
		Books:         NewBookFilterStore(),
		Users:         NewUserFilterStore(),
		Loans:         NewLoanFilterStore(),
		Catalog:       NewCatalogFilterStore(),
		Theme:         NewThemeStore(),
		Notifications: NewNotificationStore(),
		persister:     persister,
		logger:        logger.With(slog.String("session", id)),
	}

	s.search = debounce.Func(searchDelay, func(term string) {
		s.Catalog.SetSearch(term)
	})
	return s
}

// load restores persisted preferences. Failures are logged and the defaults
// kept.
func (s *Session) load(ctx context.Context) {
	var filters CatalogFilters
	if ok, err := s.persister.Load(ctx, s.ID, PrefCatalogFilters, &filters); err != nil {
		s.logger.Warn("Failed to restore catalog filters", slog.Any("error", err))
	} else if ok {
		s.Catalog.restore(filters)
	}

	var mode ThemeMode
	if ok, err := s.persister.Load(ctx, s.ID, PrefThemeMode, &mode); err != nil {
		s.logger.Warn("Failed to restore theme", slog.Any("error", err))
	} else if ok {
		s.Theme.restore(mode)
	}
}

func (s *Session) watch() {
	s.Catalog.OnChange(func(f CatalogFilters) { s.persist(PrefCatalogFilters, f) })
	s.Theme.OnChange(func(m ThemeMode) { s.persist(PrefThemeMode, m) })
}

func (s *Session) persist(name string, v any) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.persister.Save(ctx, s.ID, name, v); err != nil {
		s.logger.Warn("Failed to persist preference", slog.String("name", name), slog.Any("error", err))
	}
}

// SetSearchInput records a keystroke of the catalog search box. The catalog
// filter only changes once typing has paused for the debounce delay.
func (s *Session) SetSearchInput(term string) {
	s.search.Set(term)
}

// FlushSearch applies a pending search input immediately.
func (s *Session) FlushSearch() {
	s.search.Flush()
}

// Close cancels any pending search input.
func (s *Session) Close() {
	s.search.Stop()
}

type RegistryOptions struct {
	IdleTimeout time.Duration
	SearchDelay time.Duration
}

// Registry tracks live sessions. Sessions idle for longer than IdleTimeout
// are dropped; their persisted preferences survive.
type Registry struct {
	mu        sync.Mutex
	running   atomic.Bool
	sessions  *ttlcache.Cache[string, *Session]
	opts      RegistryOptions
	persister Persister
	logger    *slog.Logger
}

func NewRegistry(opts RegistryOptions, persister Persister, logger *slog.Logger) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if persister == nil {
		persister = NewMemoryPersister()
	}

	r := &Registry{
		sessions: ttlcache.New[string, *Session](
			ttlcache.WithTTL[string, *Session](opts.IdleTimeout),
		),
		opts:      opts,
		persister: persister,
		logger:    logger,
	}

	r.sessions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		item.Value().Close()
		if reason == ttlcache.EvictionReasonExpired {
			r.logger.Debug("Session expired", slog.String("session", item.Key()))
		}
	})
	return r
}

func (r *Registry) Start() {
	if r.running.CompareAndSwap(false, true) {
		go r.sessions.Start()
	}
}

func (r *Registry) Stop() {
	if r.running.CompareAndSwap(true, false) {
		r.sessions.Stop()
	}
}

// Resolve returns the session for id, recreating it from persisted
// preferences when it is no longer live. An empty or malformed id gets a new
// session. created reports whether a new id was issued.
func (r *Registry) Resolve(ctx context.Context, id string) (sess *Session, created bool) {
	if id != "" {
		if item := r.sessions.Get(id); item != nil {
			return item.Value(), false
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if item := r.sessions.Get(id); item != nil {
		return item.Value(), false
	}

	fresh := false
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		fresh = true
	}

	sess = newSession(id, r.opts.SearchDelay, r.persister, r.logger)
	if !fresh {
		sess.load(ctx)
	}
	sess.watch()

	r.sessions.Set(id, sess, ttlcache.DefaultTTL)
	r.logger.Debug("Session opened", slog.String("session", id), slog.Bool("restored", !fresh))
	return sess, fresh
}

func (r *Registry) Get(id string) (*Session, bool) {
	item := r.sessions.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Remove ends the session and forgets its persisted preferences.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return r.persister.Delete(ctx, id, PrefCatalogFilters, PrefThemeMode)
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}
