// Package cache provides prediction caches for ml.Predictor.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"loanscore/ml"
)

// LRU is an in-process, size-bounded prediction cache with expiry.
type LRU struct {
	entries *expirable.LRU[string, ml.Prediction]
}

// NewLRU creates a cache of at most size entries. A ttl of zero keeps
// entries until evicted by size.
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{entries: expirable.NewLRU[string, ml.Prediction](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) (ml.Prediction, bool) {
	return c.entries.Get(key)
}

func (c *LRU) Set(_ context.Context, key string, p ml.Prediction) error {
	c.entries.Add(key, p)
	return nil
}

func (c *LRU) Len() int {
	return c.entries.Len()
}
