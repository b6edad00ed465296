package cart

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps carts in process. Carts are copied in and out so callers
// never share a slice with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[uuid.UUID][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[uuid.UUID][]byte{}}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Cart, error) {
	s.mu.RLock()
	raw, ok := s.carts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrCartNotFound.With("id", id.String())
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) Save(ctx context.Context, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[c.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.carts, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context, userID uuid.UUID) ([]Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	carts := []Cart{}
	for _, raw := range s.carts {
		var c Cart
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		if c.UserID == userID {
			carts = append(carts, c)
		}
	}
	sort.Slice(carts, func(i, j int) bool {
		return carts[i].CreatedAt.Before(carts[j].CreatedAt)
	})
	return carts, nil
}
