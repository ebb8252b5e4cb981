package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"loanscore/ml"
)

const redisKeyPrefix = "loanscore:prediction:"

// Redis shares cached predictions between service instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(addr string, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Redis{client: rdb, ttl: ttl}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get treats every failure, including a down server, as a miss.
func (r *Redis) Get(ctx context.Context, key string) (ml.Prediction, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return ml.Prediction{}, false
	}
	var p ml.Prediction
	if err := json.Unmarshal(val, &p); err != nil {
		return ml.Prediction{}, false
	}
	return p, true
}

func (r *Redis) Set(ctx context.Context, key string, p ml.Prediction) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key, payload, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
