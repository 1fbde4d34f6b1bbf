package guard

import (
	"context"
	"sync"

	"autoshop/internal/route"
	"autoshop/internal/session"
)

// SessionView is the read side of a session store.
type SessionView interface {
	Snapshot() session.Snapshot
	Ready() <-chan struct{}
}

// Navigator evaluates the navigations of one client. Every navigation is
// decided against the latest snapshot, and the committed outcome is always
// the one of the most recent navigation.
type Navigator struct {
	session SessionView

	mu        sync.Mutex
	seq       uint64
	committed uint64
	current   Outcome
	path      string
}

func NewNavigator(view SessionView) *Navigator {
	return &Navigator{session: view, current: Loading()}
}

// Navigate matches path, waits out a pending restore and decides. The bool is
// false when a newer navigation committed first; the returned outcome is
// still correct for path but is not the client's current one.
func (n *Navigator) Navigate(ctx context.Context, path string) (Outcome, bool, error) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.mu.Unlock()

	r, params := route.Match(path)

	out := Decide(r, params, path, n.session.Snapshot())
	if out.Kind == KindLoading {
		select {
		case <-n.session.Ready():
		case <-ctx.Done():
			return out, false, ctx.Err()
		}
		out = Decide(r, params, path, n.session.Snapshot())
	}

	return out, n.commit(seq, path, out), nil
}

func (n *Navigator) commit(seq uint64, path string, out Outcome) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if seq < n.committed {
		return false
	}
	n.committed = seq
	n.current = out
	n.path = path
	return true
}

// Current returns the committed outcome and the path it was decided for.
func (n *Navigator) Current() (Outcome, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.path
}
