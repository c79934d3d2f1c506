package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultCustomerTimeToLive is used if no time to live is configured
const DefaultCustomerTimeToLive = 10 * time.Minute

// CustomerCache caches customers by external id
type CustomerCache interface {
	FindByExternalID(context.Context, string) (*model.Customer, error)
	EvictByExternalID(context.Context, string) error
	Cache(context.Context, *model.Customer) error
}

type redisCustomerCache struct {
	client     *redis.Client
	timeToLive time.Duration
}

// NewRedisCustomerCache builds redis-backed CustomerCache
func NewRedisCustomerCache(client *redis.Client, ttl time.Duration) CustomerCache {
	if ttl <= 0 {
		ttl = DefaultCustomerTimeToLive
	}
	return &redisCustomerCache{client: client, timeToLive: ttl}
}

func (r *redisCustomerCache) FindByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	res, err := r.client.Get(ctx, r.key(externalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var c model.Customer
	if err := msgpack.Unmarshal(res, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *redisCustomerCache) EvictByExternalID(ctx context.Context, externalID string) error {
	if _, err := r.client.Del(ctx, r.key(externalID)).Result(); err != nil {
		return err
	}
	return nil
}

func (r *redisCustomerCache) Cache(ctx context.Context, c *model.Customer) error {
	if c.ExternalID == nil {
		return nil
	}

	encoded, err := msgpack.Marshal(c)
	if err != nil {
		return err
	}

	_, err = r.client.SetNX(ctx, r.key(*c.ExternalID), encoded, r.timeToLive).Result()
	if err != nil {
		return err
	}
	return nil
}

func (r *redisCustomerCache) key(externalID string) string {
	return fmt.Sprintf("customer:external:%s", externalID)
}
