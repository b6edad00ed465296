package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps carts as JSON values with a sliding TTL, plus a per-user
// set of cart ids for listing.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func cartKey(id uuid.UUID) string {
	return "cart:" + id.String()
}

func userKey(userID uuid.UUID) string {
	return "cart:user:" + userID.String()
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Cart, error) {
	raw, err := s.rdb.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound.With("id", id.String())
	}
	if err != nil {
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, cartKey(c.ID), raw, s.ttl)
	pipe.SAdd(ctx, userKey(c.UserID), c.ID.String())
	pipe.Expire(ctx, userKey(c.UserID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, cartKey(id))
	pipe.SRem(ctx, userKey(c.UserID), id.String())
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) List(ctx context.Context, userID uuid.UUID) ([]Cart, error) {
	ids, err := s.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	carts := []Cart{}
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		c, err := s.Get(ctx, id)
		if errors.Is(err, ErrCartNotFound) {
			// expired; drop the stale index entry
			s.rdb.SRem(ctx, userKey(userID), raw)
			continue
		}
		if err != nil {
			return nil, err
		}
		carts = append(carts, *c)
	}
	sort.Slice(carts, func(i, j int) bool {
		return carts[i].CreatedAt.Before(carts[j].CreatedAt)
	})
	return carts, nil
}
