// Package notify fans real-time shop events out to subscribers.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const EventNotificationNew = "notification:new"

type Event struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

type Handler func(Event)

// Source produces events until ctx is done or the underlying stream fails.
type Source interface {
	Stream(ctx context.Context, emit func(Event)) error
}

type Hub struct {
	logger *zap.Logger

	mu   sync.RWMutex
	next uint64
	subs map[uint64]Handler
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger, subs: make(map[uint64]Handler)}
}

type Subscription struct {
	hub  *Hub
	id   uint64
	once sync.Once
}

func (h *Hub) Subscribe(fn Handler) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.subs[h.next] = fn
	return &Subscription{hub: h, id: h.next}
}

// Unsubscribe is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers e to every subscriber on the caller's goroutine. A
// panicking subscriber is logged and skipped.
func (h *Hub) Publish(e Event) {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		h.deliver(fn, e)
	}
}

func (h *Hub) deliver(fn Handler, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("notification subscriber panicked", zap.Any("panic", rec), zap.String("type", e.Type))
		}
	}()
	fn(e)
}

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Run pumps src into the hub, reconnecting with exponential backoff until
// ctx is done.
func (h *Hub) Run(ctx context.Context, src Source) {
	backoff := minBackoff
	for {
		start := time.Now()
		err := src.Stream(ctx, h.Publish)
		if ctx.Err() != nil {
			return
		}
		if time.Since(start) > maxBackoff {
			backoff = minBackoff
		}
		h.logger.Warn("notification stream dropped", zap.Error(err), zap.Duration("retryIn", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
