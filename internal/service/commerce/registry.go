package commerce

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/logging"
)

// Registry hands out one Store per session, creating and initializing it on
// first use. Stores hold no state that is not persisted or remote, so an
// evicted session is rebuilt on its next request.
type Registry struct {
	remote  remote
	persist cartPersistence
	logger  *zap.Logger
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	stores   map[string]*Store
	lastUsed map[string]time.Time
}

func NewRegistry(r remote, p cartPersistence, logger *zap.Logger, opts Options) *Registry {
	return &Registry{
		remote:   r,
		persist:  p,
		logger:   logging.OrNop(logger),
		opts:     opts,
		now:      time.Now,
		stores:   make(map[string]*Store),
		lastUsed: make(map[string]time.Time),
	}
}

// Get returns the session's store. The store is returned even when Init
// fails so favorites stay usable while the remote is down; the next cart
// operation retries initialization.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	r.mu.Lock()
	st, ok := r.stores[sessionID]
	if !ok {
		st = NewStore(sessionID, r.remote, r.persist, r.logger, r.opts)
		r.stores[sessionID] = st
	}
	r.lastUsed[sessionID] = r.now()
	r.mu.Unlock()

	if st.State() == StateReady {
		return st, nil
	}
	return st, st.Init(ctx)
}

// Drop closes and forgets the session's store.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	st, ok := r.stores[sessionID]
	delete(r.stores, sessionID)
	delete(r.lastUsed, sessionID)
	r.mu.Unlock()
	if ok {
		st.Close()
	}
}

// EvictIdle drops stores not requested for maxIdle. Stores with live
// subscribers or running mutations are kept. Returns how many were dropped.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var idle []*Store

	r.mu.Lock()
	for id, st := range r.stores {
		if r.lastUsed[id].After(cutoff) || st.subscriberCount() > 0 || st.InFlight() > 0 {
			continue
		}
		idle = append(idle, st)
		delete(r.stores, id)
		delete(r.lastUsed, id)
	}
	r.mu.Unlock()

	for _, st := range idle {
		st.Close()
	}
	if len(idle) > 0 {
		r.logger.Debug("idle session stores evicted", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Sweep drops the stores of expired sessions, then evicts stores idle for
// maxIdle. It returns how many stores were released.
func (r *Registry) Sweep(expired []string, maxIdle time.Duration) int {
	released := 0
	for _, id := range expired {
		r.mu.Lock()
		_, ok := r.stores[id]
		r.mu.Unlock()
		if ok {
			r.Drop(id)
			released++
		}
	}
	return released + r.EvictIdle(maxIdle)
}

// Len reports how many sessions have a live store.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close closes every store.
func (r *Registry) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*Store)
	r.lastUsed = make(map[string]time.Time)
	r.mu.Unlock()
	for _, st := range stores {
		st.Close()
	}
}
