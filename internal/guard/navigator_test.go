package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoshop/internal/domain"
	"autoshop/internal/route"
	"autoshop/internal/session"
)

type fakeView struct {
	mu     sync.Mutex
	snap   session.Snapshot
	ready  chan struct{}
	called chan struct{}
}

func newFakeView() *fakeView {
	return &fakeView{ready: make(chan struct{}), called: make(chan struct{}, 1)}
}

func (f *fakeView) Snapshot() session.Snapshot {
	f.mu.Lock()
	snap := f.snap
	f.mu.Unlock()
	select {
	case f.called <- struct{}{}:
	default:
	}
	return snap
}

func (f *fakeView) Ready() <-chan struct{} {
	return f.ready
}

func (f *fakeView) set(snap session.Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

func TestNavigator_WaitsForRestore(t *testing.T) {
	view := newFakeView()
	nav := NewNavigator(view)

	out, _ := nav.Current()
	assert.Equal(t, KindLoading, out.Kind)

	done := make(chan Outcome, 1)
	go func() {
		out, _, err := nav.Navigate(context.Background(), "/orders")
		assert.NoError(t, err)
		done <- out
	}()

	<-view.called
	view.set(session.Snapshot{Restored: true})
	close(view.ready)

	select {
	case out := <-done:
		assert.Equal(t, KindRedirect, out.Kind)
		assert.Equal(t, "/login?from=%2Forders", out.Location())
	case <-time.After(time.Second):
		t.Fatal("navigation did not resume after restore")
	}
}

func TestNavigator_StaleNavigationDoesNotOverwrite(t *testing.T) {
	view := newFakeView()
	nav := NewNavigator(view)

	type result struct {
		out     Outcome
		current bool
	}
	stale := make(chan result, 1)
	go func() {
		out, current, err := nav.Navigate(context.Background(), "/employees")
		assert.NoError(t, err)
		stale <- result{out, current}
	}()
	<-view.called

	view.set(session.Snapshot{Restored: true, User: userWith(domain.RoleTechnician)})
	out, current, err := nav.Navigate(context.Background(), "/orders")
	require.NoError(t, err)
	assert.True(t, current)
	assert.Equal(t, route.PageOrders, out.Route.Page)

	close(view.ready)
	res := <-stale
	assert.False(t, res.current)
	assert.Equal(t, KindRedirect, res.out.Kind)

	committed, path := nav.Current()
	assert.Equal(t, "/orders", path)
	assert.Equal(t, KindRender, committed.Kind)
	assert.Equal(t, route.PageOrders, committed.Route.Page)
}

func TestNavigator_CancelledWhileLoading(t *testing.T) {
	nav := NewNavigator(newFakeView())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, current, err := nav.Navigate(ctx, "/dashboard")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, current)
	assert.Equal(t, KindLoading, out.Kind)
}

func TestNavigator_ReevaluatesEveryNavigation(t *testing.T) {
	view := newFakeView()
	close(view.ready)
	view.set(session.Snapshot{Restored: true, User: userWith(domain.RoleManager)})
	nav := NewNavigator(view)

	out, _, err := nav.Navigate(context.Background(), "/invoices")
	require.NoError(t, err)
	assert.Equal(t, KindRender, out.Kind)

	// logged out while on the page
	view.set(session.Snapshot{Restored: true})
	out, _, err = nav.Navigate(context.Background(), "/invoices")
	require.NoError(t, err)
	assert.Equal(t, KindRedirect, out.Kind)
	assert.Equal(t, route.LoginPath, out.Target)
}
