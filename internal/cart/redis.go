package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

const cartTTL = 30 * 24 * time.Hour

// RedisStore garde chaque panier en blob JSON sous "cart:<ownerKey>",
// expiré après 30 jours d'inactivité.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(ownerKey string) string { return "cart:" + ownerKey }

func (s *RedisStore) List(ctx context.Context, ownerKey string) ([]models.CartItem, error) {
	data, err := s.client.Get(ctx, s.key(ownerKey)).Result()
	if err == redis.Nil || data == "" {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *RedisStore) Save(ctx context.Context, ownerKey string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(ownerKey), data, cartTTL).Err()
}

func (s *RedisStore) Clear(ctx context.Context, ownerKey string) error {
	return s.client.Del(ctx, s.key(ownerKey)).Err()
}
