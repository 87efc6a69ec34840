package ledger

import (
	"context"
	"sync"

	"github.com/attaboy/playerdata/internal/domain"
)

// asyncTracker counts in-flight async mutations. Once sealed it refuses new
// ones, so Wait after Seal cannot race a start.
type asyncTracker struct {
	mu       sync.Mutex
	sealed   bool
	inflight int
	idle     chan struct{} // closed when inflight drops to zero; nil while idle
}

func (t *asyncTracker) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return false
	}
	if t.inflight == 0 {
		t.idle = make(chan struct{})
	}
	t.inflight++
	return true
}

func (t *asyncTracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight--
	if t.inflight == 0 {
		close(t.idle)
		t.idle = nil
	}
}

func (t *asyncTracker) seal() {
	t.mu.Lock()
	t.sealed = true
	t.mu.Unlock()
}

func (t *asyncTracker) wait(ctx context.Context) error {
	t.mu.Lock()
	idle := t.idle
	t.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Seal stops the ledger from accepting async mutations. Mutations already
// started keep running.
func (l *Ledger) Seal() { l.async.seal() }

// Wait blocks until every async mutation started on this ledger has finished,
// or ctx is done.
func (l *Ledger) Wait(ctx context.Context) error {
	return l.async.wait(ctx)
}

// goAsync runs fn on a new goroutine unless the ledger is sealed.
func (l *Ledger) goAsync(fn func()) error {
	if !l.async.start() {
		return domain.ErrStaleAccount(l.playerID.String())
	}
	go func() {
		defer l.async.done()
		fn()
	}()
	return nil
}
