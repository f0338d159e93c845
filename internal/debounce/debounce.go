// Package debounce delays a changing value until it has settled.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the settle time used for search inputs.
const DefaultDelay = 300 * time.Millisecond

// Debouncer emits the last value passed to Set once no further Set has
// happened for the configured delay.
type Debouncer[T any] struct {
	delay time.Duration
	emit  func(T)
	out   chan T

	// run serialises emissions with Stop so nothing is emitted after Stop
	// returns.
	run sync.Mutex

	mu         sync.Mutex
	timer      *time.Timer
	pending    T
	hasPending bool
	seq        uint64
	stopped    bool
}

// New returns a debouncer that delivers settled values on Output. Only the
// latest settled value is kept when the reader falls behind.
func New[T any](delay time.Duration) *Debouncer[T] {
	d := &Debouncer[T]{
		delay: normalize(delay),
		out:   make(chan T, 1),
	}
	d.emit = d.send
	return d
}

// Func returns a debouncer that calls fn with each settled value. fn must not
// call Stop.
func Func[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		delay: normalize(delay),
		emit:  fn,
	}
}

func normalize(delay time.Duration) time.Duration {
	if delay <= 0 {
		return DefaultDelay
	}
	return delay
}

func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Output is nil for debouncers built with Func.
func (d *Debouncer[T]) Output() <-chan T {
	return d.out
}

// Set records v and restarts the delay.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = v
	d.hasPending = true
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Flush emits the pending value now, if there is one.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	seq := d.seq
	d.mu.Unlock()

	d.fire(seq)
}

// Stop cancels any pending emission. The debouncer ignores Set afterwards and
// its Output channel is closed.
func (d *Debouncer[T]) Stop() {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	d.hasPending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.out != nil {
		close(d.out)
	}
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if d.stopped || !d.hasPending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.hasPending = false
	d.mu.Unlock()

	d.emit(v)
}

func (d *Debouncer[T]) send(v T) {
	select {
	case <-d.out:
	default:
	}
	select {
	case d.out <- v:
	default:
	}
}
