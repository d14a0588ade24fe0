package session

import (
	"context"
	"sync"
)

// Restoration is a single-assignment handle for the first session
// restoration attempt. It is resolved exactly once and never fails.
type Restoration struct {
	once     sync.Once
	done     chan struct{}
	restored bool
}

// NewRestoration returns an unresolved handle.
func NewRestoration() *Restoration {
	return &Restoration{done: make(chan struct{})}
}

// Done is closed once the restoration attempt has completed.
func (r *Restoration) Done() <-chan struct{} {
	return r.done
}

// Resolved reports whether the handle has been resolved.
func (r *Restoration) Resolved() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the handle is resolved and reports whether a session was
// restored. It returns an error only if ctx ends first.
func (r *Restoration) Wait(ctx context.Context) (bool, error) {
	select {
	case <-r.done:
		return r.restored, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// resolve settles the handle. Calls after the first are ignored.
func (r *Restoration) resolve(restored bool) {
	r.once.Do(func() {
		r.restored = restored
		close(r.done)
	})
}
