package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanscore/ml"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU(2, 0)
	ctx := context.Background()

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", ml.Prediction{Label: 1, Probability: 0.9}))
	require.NoError(t, c.Set(ctx, "b", ml.Prediction{Label: 0, Probability: 0.1}))
	require.NoError(t, c.Set(ctx, "c", ml.Prediction{Label: 0, Probability: 0.2}))

	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok, "oldest entry should be evicted")

	p, ok := c.Get(ctx, "c")
	require.True(t, ok)
	assert.Equal(t, 0.2, p.Probability)
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU(10, 20*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", ml.Prediction{Probability: 0.5}))

	require.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestLRUWithPredictor(t *testing.T) {
	predictor, err := ml.LoadPredictor(ml.ModelTypeCatBoostJSON, "../ml/testdata/catboost_loan.json", ml.WithCache(NewLRU(8, time.Minute)))
	require.NoError(t, err)

	vector := make([]float64, predictor.Arity())
	first, err := predictor.Predict(context.Background(), vector)
	require.NoError(t, err)
	second, err := predictor.Predict(context.Background(), vector)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r := NewRedis(addr, time.Minute)
	defer r.Close()
	require.NoError(t, r.Ping(ctx))

	want := ml.Prediction{Label: 1, Probability: 0.83}
	require.NoError(t, r.Set(ctx, "test-key", want))
	got, ok := r.Get(ctx, "test-key")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisUnavailableIsMiss(t *testing.T) {
	r := NewRedis("127.0.0.1:1", time.Minute)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, ok := r.Get(ctx, "anything")
	assert.False(t, ok)
	assert.Error(t, r.Set(ctx, "anything", ml.Prediction{}))
}
