package commerce

import (
	"go.uber.org/zap"

	"storefront/internal/domain"
)

// EventKind names what changed.
type EventKind string

const (
	EventCart      EventKind = "cart"
	EventFavorites EventKind = "favorites"
)

// Event is pushed to subscribers after the cart is re-fetched or the
// favorites list changes. Only the field matching Kind is set.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Cart      *domain.Cart           `json:"cart,omitempty"`
	Favorites []domain.FavoriteEntry `json:"favorites,omitempty"`
}

const subscriberBuffer = 16

// Subscribe returns a channel of store events and a cancel func. Slow
// subscribers miss events instead of blocking the store. The channel is
// closed by cancel or by Close.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubscribe
	s.nextSubscribe++
	s.subscribers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			close(c)
			delete(s.subscribers, id)
		}
	}
}

func (s *Store) subscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// broadcastLocked fans evt out without blocking. Caller holds s.mu.
func (s *Store) broadcastLocked(evt Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- evt:
		default:
			s.logger.Debug("subscriber slow, event dropped", zap.String("kind", string(evt.Kind)))
		}
	}
}
