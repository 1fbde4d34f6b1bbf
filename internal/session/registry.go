package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry hands out one Store per client id and starts its silent restore
// the first time the client is seen.
type Registry struct {
	auth           AuthClient
	tokens         TokenStore
	logger         *zap.Logger
	restoreTimeout time.Duration

	mu      sync.RWMutex
	stores  map[string]*entry
	onEvict []func(clientID string)
}

func NewRegistry(auth AuthClient, tokens TokenStore, logger *zap.Logger, restoreTimeout time.Duration) *Registry {
	if restoreTimeout <= 0 {
		restoreTimeout = 10 * time.Second
	}
	return &Registry{
		auth:           auth,
		tokens:         tokens,
		logger:         logger,
		restoreTimeout: restoreTimeout,
		stores:         make(map[string]*entry),
	}
}

// Get returns the store for clientID, creating it when missing. A new store
// restores in the background; callers observe that through Store.Ready.
func (r *Registry) Get(clientID string) *Store {
	now := time.Now()

	r.mu.RLock()
	e, ok := r.stores[clientID]
	r.mu.RUnlock()
	if ok {
		r.touch(clientID, now)
		return e.store
	}

	r.mu.Lock()
	if e, ok := r.stores[clientID]; ok {
		e.lastSeen = now
		r.mu.Unlock()
		return e.store
	}
	store := NewStore(clientID, r.auth, r.tokens, r.logger)
	r.stores[clientID] = &entry{store: store, lastSeen: now}
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.restoreTimeout)
		defer cancel()
		if err := store.Restore(ctx); err != nil {
			r.logger.Info("silent restore failed", zap.String("clientId", clientID), zap.Error(err))
		}
	}()
	return store
}

func (r *Registry) touch(clientID string, now time.Time) {
	r.mu.Lock()
	if e, ok := r.stores[clientID]; ok {
		e.lastSeen = now
	}
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// OnEvict registers fn to be called with every client id Sweep drops.
func (r *Registry) OnEvict(fn func(clientID string)) {
	r.mu.Lock()
	r.onEvict = append(r.onEvict, fn)
	r.mu.Unlock()
}

// Sweep drops stores idle for longer than ttl. Persisted tokens survive, so
// a returning client restores again.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	var removed []string
	for id, e := range r.stores {
		if now.Sub(e.lastSeen) > ttl {
			delete(r.stores, id)
			removed = append(removed, id)
		}
	}
	hooks := append([]func(string){}, r.onEvict...)
	r.mu.Unlock()

	for _, id := range removed {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return len(removed)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := r.Sweep(now, ttl); n > 0 {
					r.logger.Debug("swept idle client stores", zap.Int("count", n))
				}
			}
		}
	}()
}
