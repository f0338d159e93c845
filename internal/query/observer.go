package query

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is a snapshot of one cached read as seen by an observer.
type State struct {
	Status     Status
	Data       any
	Err        error
	IsFetching bool
	IsStale    bool
	UpdatedAt  time.Time
}

type ObserveOptions struct {
	// Disabled observers never fetch and stay idle.
	Disabled bool
}

// Observer keeps a cache entry mounted. While at least one observer is open
// the entry is never collected and invalidation refetches it immediately.
type Observer struct {
	client *Client
	entry  *entry
	key    Key

	mu      sync.Mutex
	state   State
	changes chan State
	once    sync.Once
}

// Observe mounts key. The returned observer receives every state change of
// the entry until Close is called.
func (c *Client) Observe(key Key, fn FetchFunc, opts ObserveOptions) *Observer {
	o := &Observer{
		client:  c,
		key:     key,
		state:   State{Status: StatusIdle},
		changes: make(chan State, 1),
	}
	if opts.Disabled {
		return o
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key, fn)
	o.entry = e
	e.observers[o] = struct{}{}
	c.entries.Set(e.hash, e, ttlcache.NoTTL)

	if !c.freshLocked(e) && e.inflight == nil {
		c.startLocked(e)
	} else {
		o.push(c.stateLocked(e))
	}
	return o
}

func (o *Observer) Key() Key {
	return o.key
}

// State returns the latest snapshot.
func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Changes delivers the latest state whenever it changes. Intermediate states
// are dropped when the reader falls behind. The channel is closed by Close.
func (o *Observer) Changes() <-chan State {
	return o.changes
}

// Wait blocks until the observed read settles or ctx is done.
func (o *Observer) Wait(ctx context.Context) (State, error) {
	for {
		s := o.State()
		if o.entry == nil || (!s.IsFetching && s.Status != StatusIdle && s.Status != StatusLoading) {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return o.State(), ctx.Err()
		case _, ok := <-o.changes:
			if !ok {
				return o.State(), nil
			}
		}
	}
}

// Refetch starts a new request for the observed key, superseding any request
// already in flight.
func (o *Observer) Refetch() {
	if o.entry == nil {
		return
	}
	c := o.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := o.entry.observers[o]; ok {
		c.startLocked(o.entry)
	}
}

// Close unmounts the observer. A request it shares with other consumers keeps
// running; the entry is collected once it has no observers left for the GC
// time.
func (o *Observer) Close() {
	o.once.Do(func() {
		if o.entry == nil {
			close(o.changes)
			return
		}

		c := o.client
		c.mu.Lock()
		delete(o.entry.observers, o)
		if len(o.entry.observers) == 0 {
			c.entries.Set(o.entry.hash, o.entry, ttlcache.DefaultTTL)
		}
		c.mu.Unlock()

		close(o.changes)
	})
}

// push is called with the client lock held.
func (o *Observer) push(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()

	select {
	case <-o.changes:
	default:
	}
	select {
	case o.changes <- s:
	default:
	}
}
