package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/lmsdesk/internal/apiclient"
)

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Millisecond
	}
	c := NewClient(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(c.Stop)
	return c
}

// counter returns a fetch function that counts its calls and answers with
// the call number.
func counter() (FetchFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}, &calls
}

func TestKey_Hash(t *testing.T) {
	a := NewKey("books", "list", 0, 10, map[string]string{"search": "x"})
	b := NewKey("books", "list", 0, 10, map[string]string{"search": "x"})
	c := NewKey("books", "list", 1, 10, map[string]string{"search": "x"})

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.NotEqual(t, NewKey("books", "detail", 1).Hash(), NewKey("users", "detail", 1).Hash())
}

func TestClient_CoalescesConcurrentReads(t *testing.T) {
	c := newTestClient(t, Options{StaleTime: time.Minute})
	key := NewKey("books", "list", 0, 10)

	release := make(chan struct{})
	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "page", nil
	}

	const readers = 5
	var wg sync.WaitGroup
	results := make([]any, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), key, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "page", v)
	}
}

func TestClient_ServesFreshResults(t *testing.T) {
	c := newTestClient(t, Options{StaleTime: time.Minute})
	fn, calls := counter()
	key := NewKey("books", "detail", 1)

	first, err := c.Fetch(context.Background(), key, fn)
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), key, fn)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	state, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, state.Status)
	assert.False(t, state.IsStale)
}

func TestClient_ZeroStaleTimeAlwaysRefetches(t *testing.T) {
	c := newTestClient(t, Options{})
	fn, calls := counter()
	key := NewKey("books", "detail", 1)

	_, err := c.Fetch(context.Background(), key, fn)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), key, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_LastIssuedRequestWins(t *testing.T) {
	c := newTestClient(t, Options{StaleTime: time.Minute})
	key := NewKey("books", "list", 0, 10)

	release := make(chan struct{})
	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			<-release
			return "old", nil
		}
		return "new", nil
	}

	got := make(chan any, 1)
	go func() {
		v, err := c.Fetch(context.Background(), key, fn)
		assert.NoError(t, err)
		got <- v
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	c.Invalidate("books")
	require.Eventually(t, func() bool {
		s, _ := c.Peek(key)
		return s.Data == "new"
	}, time.Second, time.Millisecond)

	close(release)
	select {
	case v := <-got:
		assert.Equal(t, "new", v)
	case <-time.After(time.Second):
		t.Fatal("waiter of superseded request never returned")
	}

	s, _ := c.Peek(key)
	assert.Equal(t, "new", s.Data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_InvalidateByResourceFamily(t *testing.T) {
	c := newTestClient(t, Options{StaleTime: time.Minute})
	ctx := context.Background()

	listFn, listCalls := counter()
	detailFn, detailCalls := counter()
	usersFn, usersCalls := counter()

	listKey := NewKey("books", "list", 0, 10)
	detailKey := NewKey("books", "detail", 3)
	usersKey := NewKey("users", "list", 0, 10)

	obs := c.Observe(listKey, listFn, ObserveOptions{})
	defer obs.Close()
	_, err := obs.Wait(ctx)
	require.NoError(t, err)

	_, err = c.Fetch(ctx, detailKey, detailFn)
	require.NoError(t, err)
	_, err = c.Fetch(ctx, usersKey, usersFn)
	require.NoError(t, err)

	c.Invalidate("books")

	// observed entries refetch right away
	require.Eventually(t, func() bool { return listCalls.Load() == 2 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return obs.State().Data == 2 }, time.Second, time.Millisecond)

	// unobserved ones wait for the next read
	s, _ := c.Peek(detailKey)
	assert.True(t, s.IsStale)
	assert.Equal(t, int32(1), detailCalls.Load())
	v, err := c.Fetch(ctx, detailKey, detailFn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// other families are untouched
	v, err = c.Fetch(ctx, usersKey, usersFn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int32(1), usersCalls.Load())
}

func TestClient_DisabledObserverStaysIdle(t *testing.T) {
	c := newTestClient(t, Options{})
	fn, calls := counter()

	obs := c.Observe(NewKey("books", "detail", 0), fn, ObserveOptions{Disabled: true})
	defer obs.Close()

	state, err := obs.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, state.Status)
	assert.False(t, state.IsFetching)
	assert.Nil(t, state.Data)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, c.Len())

	obs.Refetch()
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_UnmountDoesNotCancelSharedRequest(t *testing.T) {
	c := newTestClient(t, Options{StaleTime: time.Minute})
	key := NewKey("loans", "list", 0, 10)

	release := make(chan struct{})
	var ctxErr atomic.Value
	fn := func(ctx context.Context) (any, error) {
		<-release
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
			return nil, err
		}
		return "loans", nil
	}

	first := c.Observe(key, fn, ObserveOptions{})
	second := c.Observe(key, fn, ObserveOptions{})
	defer second.Close()

	callerCtx, cancel := context.WithCancel(context.Background())
	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(callerCtx, key, fn)
		waiterErr <- err
	}()

	first.Close()
	cancel()
	assert.ErrorIs(t, <-waiterErr, context.Canceled)

	close(release)
	state, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, state.Status)
	assert.Equal(t, "loans", state.Data)
	assert.Nil(t, ctxErr.Load())

	// the closed observer's channel is drained and closed
	for range first.Changes() {
	}
}

func TestClient_ObserverReportsLoadingThenSuccess(t *testing.T) {
	c := newTestClient(t, Options{StaleTime: time.Minute})
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		<-release
		return "ok", nil
	}

	obs := c.Observe(NewKey("books", "list"), fn, ObserveOptions{})
	defer obs.Close()

	state := obs.State()
	assert.Equal(t, StatusLoading, state.Status)
	assert.True(t, state.IsFetching)

	close(release)
	state, err := obs.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, state.Status)
	assert.False(t, state.IsFetching)
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestClient_RetriesTransientReadsOnly(t *testing.T) {
	tests := []struct {
		name      string
		failure   error
		wantCalls int32
		wantErr   bool
	}{
		{
			name:      "network error is retried",
			failure:   &apiclient.NetworkError{Op: "GET", URL: "/books", Err: errors.New("connection refused")},
			wantCalls: 2,
		},
		{
			name:      "server error is retried",
			failure:   &apiclient.HTTPError{StatusCode: 503, Message: "unavailable"},
			wantCalls: 2,
		},
		{
			name:      "not found is not retried",
			failure:   &apiclient.HTTPError{StatusCode: 404, Message: "missing"},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, Options{ReadRetries: 1})
			var calls atomic.Int32
			fn := func(ctx context.Context) (any, error) {
				if calls.Add(1) == 1 {
					return nil, tt.failure
				}
				return "ok", nil
			}

			v, err := c.Fetch(context.Background(), NewKey("books", "list"), fn)
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr {
				assert.ErrorIs(t, err, apiclient.ErrNotFound)
				s, _ := c.Peek(NewKey("books", "list"))
				assert.Equal(t, StatusError, s.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", v)
		})
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	c := newTestClient(t, Options{ReadRetries: 2})
	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, &apiclient.TimeoutError{URL: "/books"}
	}

	_, err := c.Fetch(context.Background(), NewKey("books", "list"), fn)
	var timeoutErr *apiclient.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_CollectsUnobservedEntries(t *testing.T) {
	c := newTestClient(t, Options{GCTime: 20 * time.Millisecond, StaleTime: time.Minute})
	c.Start()
	fn, _ := counter()

	observed := c.Observe(NewKey("books", "list"), fn, ObserveOptions{})
	defer observed.Close()
	_, err := observed.Wait(context.Background())
	require.NoError(t, err)

	released := c.Observe(NewKey("users", "list"), fn, ObserveOptions{})
	_, err = released.Wait(context.Background())
	require.NoError(t, err)
	released.Close()

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, ok := c.Peek(NewKey("books", "list"))
	assert.True(t, ok)
	_, ok = c.Peek(NewKey("users", "list"))
	assert.False(t, ok)
}

func TestMutate(t *testing.T) {
	ctx := context.Background()

	t.Run("failure leaves cache untouched", func(t *testing.T) {
		c := newTestClient(t, Options{StaleTime: time.Minute})
		fn, calls := counter()
		key := NewKey("books", "list", 0, 10)
		_, err := c.Fetch(ctx, key, fn)
		require.NoError(t, err)

		conflict := &apiclient.HTTPError{StatusCode: 409, Message: "duplicate"}
		var attempts int
		_, err = Mutate(ctx, c, func(ctx context.Context) (string, error) {
			attempts++
			return "", conflict
		}, "books")
		assert.ErrorIs(t, err, apiclient.ErrConflict)
		assert.Equal(t, 1, attempts)

		s, _ := c.Peek(key)
		assert.False(t, s.IsStale)
		v, err := c.Fetch(ctx, key, fn)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("success invalidates listed families", func(t *testing.T) {
		c := newTestClient(t, Options{StaleTime: time.Minute})
		fn, calls := counter()
		key := NewKey("books", "list", 0, 10)
		_, err := c.Fetch(ctx, key, fn)
		require.NoError(t, err)

		created, err := Mutate(ctx, c, func(ctx context.Context) (string, error) {
			return "book-6", nil
		}, "books")
		require.NoError(t, err)
		assert.Equal(t, "book-6", created)

		v, err := c.Fetch(ctx, key, fn)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestGet_TypeMismatch(t *testing.T) {
	c := newTestClient(t, Options{StaleTime: time.Minute})
	key := NewKey("users", "count")

	n, err := Get(context.Background(), c, key, func(ctx context.Context) (int64, error) {
		return 12, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	_, err = Get(context.Background(), c, key, func(ctx context.Context) (string, error) {
		return "twelve", nil
	})
	assert.Error(t, err)
}
