package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var got sample
	found, err := repo.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SetJSON(ctx, "k", sample{Name: "t", Value: 1.5}, time.Minute))

	found, err = repo.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "t", Value: 1.5}, got)
}

func TestMemoryRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &memoryRepository{
		m:   make(map[string]memoryEntry),
		now: func() time.Time { return now },
	}

	require.NoError(t, repo.SetJSON(ctx, "short", sample{Name: "a"}, time.Second))
	require.NoError(t, repo.SetJSON(ctx, "forever", sample{Name: "b"}, 0))

	now = now.Add(2 * time.Second)

	var got sample
	found, err := repo.GetJSON(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = repo.GetJSON(ctx, "forever", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", got.Name)
}

func TestMemoryRepositoryConcurrentUse(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.SetJSON(ctx, "latest", sample{Value: float64(i)}, time.Minute)
			var s sample
			_, _ = repo.GetJSON(ctx, "latest", &s)
		}(i)
	}
	wg.Wait()

	var s sample
	found, err := repo.GetJSON(ctx, "latest", &s)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NoError(t, repo.Ping(ctx))
}
