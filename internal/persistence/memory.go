package persistence

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/logging"
)

// MemoryAdapter keeps session records in process memory. Records do not
// survive a restart.
type MemoryAdapter struct {
	codec
	mem *memoryStore
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory builds an empty MemoryAdapter.
func NewMemory(logger *zap.Logger) *MemoryAdapter {
	mem := &memoryStore{data: make(map[string][]byte)}
	return &MemoryAdapter{
		codec: codec{
			store:  mem,
			prefix: defaultKeyPrefix,
			logger: logging.OrNop(logger).Named("persistence"),
		},
		mem: mem,
	}
}

// PutRaw stores bytes under a record key as-is. Used to seed fixtures.
func (a *MemoryAdapter) PutRaw(sessionID, name string, raw []byte) {
	_ = a.mem.set(context.Background(), a.key(sessionID, record(name)), raw)
}

func (s *memoryStore) get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	return dup, true, nil
}

func (s *memoryStore) set(_ context.Context, key string, value []byte) error {
	dup := make([]byte, len(value))
	copy(dup, value)
	s.mu.Lock()
	s.data[key] = dup
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
