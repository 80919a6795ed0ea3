package correlation

import (
	"context"
	"fmt"
	"sync"

	// Packages
	uuid "github.com/google/uuid"
	request "github.com/mutablelogic/go-requeue/pkg/request"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Table maps job identifiers to the callers waiting for their response.
// Each entry is delivered to at most once.
type Table struct {
	mu      sync.Mutex
	waiters map[uuid.UUID]*Waiter
	onPanic func(error)
}

// Waiter is the receiving side of a table entry
type Waiter struct {
	mu        sync.Mutex
	id        uuid.UUID
	ch        chan result
	abandoned bool
}

type result struct {
	resp *request.Response
	err  error
}

// Opt configures a table
type Opt func(*Table)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an empty table
func New(opts ...Opt) *Table {
	t := &Table{waiters: make(map[uuid.UUID]*Waiter)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithPanicHandler sets a function which receives any panic recovered
// while the table lock is held
func WithPanicHandler(fn func(error)) Opt {
	return func(t *Table) {
		t.onPanic = fn
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - TABLE

// Register adds an entry for id. It must be called before the job is
// enqueued.
func (t *Table) Register(id uuid.UUID) (*Waiter, error) {
	w := &Waiter{id: id, ch: make(chan result, 1)}
	var exists bool
	if !t.locked(func() {
		if _, exists = t.waiters[id]; !exists {
			t.waiters[id] = w
		}
	}) {
		return nil, ErrUnavailable.With(id)
	}
	if exists {
		return nil, ErrDuplicate.With(id)
	}
	return w, nil
}

// Resolve removes the entry for id and delivers the response. It returns
// ErrMissingSender when there is no entry, and ErrMissingReceiver when the
// waiter was abandoned.
func (t *Table) Resolve(id uuid.UUID, resp *request.Response) error {
	return t.deliver(id, result{resp: resp})
}

// Reject removes the entry for id and delivers err to the waiter
func (t *Table) Reject(id uuid.UUID, err error) error {
	if err == nil {
		err = ErrRejected
	}
	return t.deliver(id, result{err: err})
}

// Forget removes the entry for id without delivering anything
func (t *Table) Forget(id uuid.UUID) {
	t.take(id)
}

// Len returns the number of entries
func (t *Table) Len() int {
	var n int
	t.locked(func() {
		n = len(t.waiters)
	})
	return n
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - WAITER

// Id returns the job identifier
func (w *Waiter) Id() uuid.UUID {
	return w.id
}

// Wait blocks until a response is delivered or ctx is done. When ctx is
// done first the waiter is abandoned and any later delivery fails.
func (w *Waiter) Wait(ctx context.Context) (*request.Response, error) {
	select {
	case r := <-w.ch:
		return r.resp, r.err
	case <-ctx.Done():
		w.Close()
		// A delivery may have raced with cancellation
		select {
		case r := <-w.ch:
			return r.resp, r.err
		default:
			return nil, ctx.Err()
		}
	}
}

// Close abandons the waiter
func (w *Waiter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.abandoned = true
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (t *Table) deliver(id uuid.UUID, r result) error {
	w := t.take(id)
	if w == nil {
		return ErrMissingSender.With(id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.abandoned {
		return ErrMissingReceiver.With(id)
	}
	w.ch <- r
	return nil
}

// take removes and returns the entry for id, or nil
func (t *Table) take(id uuid.UUID) *Waiter {
	var w *Waiter
	t.locked(func() {
		if w = t.waiters[id]; w != nil {
			delete(t.waiters, id)
		}
	})
	return w
}

// locked runs fn with the table lock held. A panic in fn is recovered and
// reported, and locked returns false.
func (t *Table) locked(fn func()) (ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if t.onPanic != nil {
				t.onPanic(fmt.Errorf("correlation: panic: %v", r))
			}
		}
	}()
	fn()
	return true
}
