// Package query caches reads against the library API. Identical reads share
// one request and one result, mutations invalidate whole resource families,
// and the newest request for a key always wins.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jellydator/ttlcache/v3"

	"github.com/ngenohkevin/lmsdesk/internal/apiclient"
)

// ErrQueryDisabled is returned for reads whose parameters are not resolved
// yet, e.g. a detail read without an id. No request is made.
var ErrQueryDisabled = errors.New("query disabled")

// FetchFunc performs the underlying read. It runs on a context detached from
// any single consumer.
type FetchFunc func(ctx context.Context) (any, error)

type Options struct {
	// StaleTime is how long a successful result is served without refetching.
	StaleTime time.Duration
	// GCTime is how long an entry without observers is kept.
	GCTime time.Duration
	// ReadRetries is the number of extra attempts for transient read failures.
	ReadRetries  int
	RetryBackoff time.Duration
	// ShouldRetry decides whether a failed read is transient.
	ShouldRetry func(error) bool
}

func (o Options) withDefaults() Options {
	if o.GCTime <= 0 {
		o.GCTime = 5 * time.Minute
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 200 * time.Millisecond
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = apiclient.IsTransient
	}
	if o.ReadRetries < 0 {
		o.ReadRetries = 0
	}
	return o
}

type call struct {
	gen  uint64
	done chan struct{}
	val  any
	err  error
	// next is set when a newer request superseded this one before it finished.
	next *call
}

type entry struct {
	key       Key
	hash      string
	fn        FetchFunc
	data      any
	hasData   bool
	err       error
	stale     bool
	updatedAt time.Time
	gen       uint64
	inflight  *call
	observers map[*Observer]struct{}
}

// Client owns the cache. All entry fields are guarded by mu.
type Client struct {
	mu      sync.Mutex
	opts    Options
	entries *ttlcache.Cache[string, *entry]
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	now     func() time.Time
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts: opts,
		entries: ttlcache.New[string, *entry](
			ttlcache.WithTTL[string, *entry](opts.GCTime),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}

	c.entries.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *entry]) {
		if reason == ttlcache.EvictionReasonExpired {
			c.logger.Debug("Query entry collected", slog.String("key", item.Key()))
		}
	})

	return c
}

// Start runs the expiry janitor until Stop is called.
func (c *Client) Start() {
	if c.running.CompareAndSwap(false, true) {
		go c.entries.Start()
	}
}

// Stop halts the janitor and abandons in-flight fetches.
func (c *Client) Stop() {
	if c.running.CompareAndSwap(true, false) {
		c.entries.Stop()
	}
	c.cancel()
}

// Len reports the number of cached entries.
func (c *Client) Len() int {
	return c.entries.Len()
}

// Fetch returns the cached value for key when it is fresh, joins the
// in-flight request when there is one, and otherwise starts a new request.
// Cancelling ctx only stops this caller from waiting.
func (c *Client) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key, fn)
	if c.freshLocked(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}

	cl := e.inflight
	if cl == nil {
		cl = c.startLocked(e)
	}
	c.mu.Unlock()

	return wait(ctx, cl)
}

// Get is the typed form of Fetch.
func Get[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cached value for %s has type %T", key, v)
	}
	return typed, nil
}

// Invalidate marks every entry of the given resource families stale. Entries
// with observers, or with a request already in flight, are refetched right
// away; the rest refetch on next access.
func (c *Client) Invalidate(resources ...string) {
	if len(resources) == 0 {
		return
	}
	families := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		families[r] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, item := range c.entries.Items() {
		e := item.Value()
		if _, ok := families[e.key.Resource]; !ok {
			continue
		}
		e.stale = true
		count++

		if len(e.observers) > 0 || e.inflight != nil {
			c.startLocked(e)
		} else {
			c.notifyLocked(e)
		}
	}

	c.logger.Debug("Queries invalidated", slog.Any("resources", resources), slog.Int("entries", count))
}

// Peek returns the state of key without triggering a fetch.
func (c *Client) Peek(key Key) (State, bool) {
	item := c.entries.Get(key.Hash())
	if item == nil {
		return State{Status: StatusIdle}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(item.Value()), true
}

func (c *Client) entryLocked(key Key, fn FetchFunc) *entry {
	hash := key.Hash()
	if item := c.entries.Get(hash); item != nil {
		e := item.Value()
		if fn != nil {
			e.fn = fn
		}
		return e
	}

	e := &entry{
		key:       key,
		hash:      hash,
		fn:        fn,
		observers: make(map[*Observer]struct{}),
	}
	c.entries.Set(hash, e, ttlcache.DefaultTTL)
	return e
}

func (c *Client) freshLocked(e *entry) bool {
	if !e.hasData || e.err != nil || e.stale {
		return false
	}
	return c.now().Sub(e.updatedAt) < c.opts.StaleTime
}

// startLocked issues a new request for e. It supersedes any request already
// in flight for the same key.
func (c *Client) startLocked(e *entry) *call {
	e.gen++
	cl := &call{gen: e.gen, done: make(chan struct{})}
	e.inflight = cl

	c.logger.Debug("Query fetch", slog.String("key", e.hash), slog.Uint64("generation", e.gen))

	go c.run(e, cl, e.fn)
	c.notifyLocked(e)
	return cl
}

func (c *Client) run(e *entry, cl *call, fn FetchFunc) {
	val, err := c.fetch(fn)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cl.gen != e.gen {
		// A newer request was issued; its result is the one that counts.
		c.logger.Debug("Query result discarded",
			slog.String("key", e.hash),
			slog.Uint64("generation", cl.gen),
			slog.Uint64("current", e.gen),
		)
		if e.inflight != nil {
			cl.next = e.inflight
		} else {
			cl.val, cl.err = e.data, e.err
		}
		close(cl.done)
		return
	}

	e.inflight = nil
	if err != nil {
		e.err = err
		c.logger.Warn("Query failed", slog.String("key", e.hash), slog.Any("error", err))
	} else {
		e.data = val
		e.hasData = true
		e.err = nil
		e.stale = false
		e.updatedAt = c.now()
	}

	cl.val, cl.err = val, err
	close(cl.done)
	c.notifyLocked(e)
}

func (c *Client) fetch(fn FetchFunc) (any, error) {
	if fn == nil {
		return nil, errors.New("query has no fetch function")
	}

	var val any
	operation := func() error {
		v, err := fn(c.ctx)
		if err != nil {
			if !c.opts.ShouldRetry(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		val = v
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.RetryBackoff
	policy.MaxElapsedTime = 0

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.opts.ReadRetries)), c.ctx),
		func(err error, next time.Duration) {
			c.logger.Warn("Retrying query", slog.Any("error", err), slog.Duration("backoff", next))
		},
	)
	return val, err
}

func (c *Client) notifyLocked(e *entry) {
	if len(e.observers) == 0 {
		return
	}
	s := c.stateLocked(e)
	for o := range e.observers {
		o.push(s)
	}
}

func (c *Client) stateLocked(e *entry) State {
	s := State{
		Data:       e.data,
		Err:        e.err,
		IsFetching: e.inflight != nil,
		IsStale:    e.stale || !c.freshLocked(e),
		UpdatedAt:  e.updatedAt,
	}

	switch {
	case e.err != nil:
		s.Status = StatusError
	case e.hasData:
		s.Status = StatusSuccess
	case e.inflight != nil:
		s.Status = StatusLoading
	default:
		s.Status = StatusIdle
	}
	return s
}

func wait(ctx context.Context, cl *call) (any, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-cl.done:
		}
		if cl.next == nil {
			return cl.val, cl.err
		}
		cl = cl.next
	}
}
