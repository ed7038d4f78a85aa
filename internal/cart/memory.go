package cart

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryRepository is an in-process Repository for tests and local
// development without Redis. Carts are stored as JSON so Load returns
// independent copies, matching the Redis implementation.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewMemoryRepository creates an empty in-memory cart repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string][]byte)}
}

func (m *MemoryRepository) Load(_ context.Context, key string) (*Cart, error) {
	m.mu.RLock()
	data, ok := m.carts[key]
	m.mu.RUnlock()
	if !ok {
		return &Cart{}, nil
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *MemoryRepository) Save(_ context.Context, key string, c *Cart) error {
	if len(c.Items) == 0 {
		m.mu.Lock()
		delete(m.carts, key)
		m.mu.Unlock()
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.carts[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.carts, key)
	m.mu.Unlock()
	return nil
}
