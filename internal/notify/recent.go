package notify

import (
	"sync"

	"autoshop/internal/domain"
)

// Recent keeps the latest notification:new events, newest first.
type Recent struct {
	mu    sync.RWMutex
	max   int
	items []Event
	sub   *Subscription
}

func NewRecent(hub *Hub, max int) *Recent {
	if max <= 0 {
		max = 50
	}
	r := &Recent{max: max}
	r.sub = hub.Subscribe(r.add)
	return r
}

func (r *Recent) add(e Event) {
	if e.Type != EventNotificationNew {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]Event{e}, r.items...)
	if len(r.items) > r.max {
		r.items = r.items[:r.max]
	}
}

// List returns the buffered events user may see, newest first.
func (r *Recent) List(user *domain.User) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, 0, len(r.items))
	for _, e := range r.items {
		if e.VisibleTo(user) {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recent) Close() {
	r.sub.Unsubscribe()
}
