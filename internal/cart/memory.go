package cart

import (
	"context"
	"sync"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

// MemoryStore est l'équivalent en mémoire de RedisStore, pour les tests.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]models.CartItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]models.CartItem)}
}

func (s *MemoryStore) List(_ context.Context, ownerKey string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.CartItem, len(s.carts[ownerKey]))
	copy(items, s.carts[ownerKey])
	return items, nil
}

func (s *MemoryStore) Save(_ context.Context, ownerKey string, items []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.CartItem, len(items))
	copy(cp, items)
	s.carts[ownerKey] = cp
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, ownerKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, ownerKey)
	return nil
}
