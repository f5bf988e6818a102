package cache

import (
	"biteswipe/internal/model"
	"biteswipe/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCatalog struct {
	*memory.RestaurantRepo
	lookups int
}

func (c *countingCatalog) FetchCandidate(ctx context.Context, id string) (*model.Restaurant, error) {
	c.lookups++
	return c.RestaurantRepo.FetchCandidate(ctx, id)
}

func TestRestaurantCacheMemoizesLookups(t *testing.T) {
	ctx := context.Background()
	backing := &countingCatalog{RestaurantRepo: memory.NewRestaurantRepo()}
	here := model.Location{Latitude: 1, Longitude: 1}
	require.NoError(t, backing.Upsert(ctx, &model.Restaurant{ID: "R1", Name: "Old", Location: model.NewGeoPoint(here)}))

	c := NewRestaurantCache(backing, time.Minute)

	for i := 0; i < 3; i++ {
		r, err := c.FetchCandidate(ctx, "R1")
		require.NoError(t, err)
		assert.Equal(t, "Old", r.Name)
	}
	assert.Equal(t, 1, backing.lookups)

	// callers may not corrupt the cached copy
	r, err := c.FetchCandidate(ctx, "R1")
	require.NoError(t, err)
	r.Name = "Mutated"
	r, err = c.FetchCandidate(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "Old", r.Name)

	require.NoError(t, c.Upsert(ctx, &model.Restaurant{ID: "R1", Name: "New", Location: model.NewGeoPoint(here)}))
	r, err = c.FetchCandidate(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "New", r.Name)
	assert.Equal(t, 2, backing.lookups)
}

func TestRestaurantCacheWarmsFromCandidateSearch(t *testing.T) {
	ctx := context.Background()
	backing := &countingCatalog{RestaurantRepo: memory.NewRestaurantRepo()}
	here := model.Location{Latitude: 1, Longitude: 1}
	require.NoError(t, backing.Upsert(ctx, &model.Restaurant{ID: "R1", Location: model.NewGeoPoint(here)}))
	require.NoError(t, backing.Upsert(ctx, &model.Restaurant{ID: "R2", Location: model.NewGeoPoint(here)}))

	c := NewRestaurantCache(backing, time.Minute)
	found, err := c.FetchCandidates(ctx, here, 100)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = c.FetchCandidate(ctx, "R2")
	require.NoError(t, err)
	assert.Zero(t, backing.lookups)
}

func TestRestaurantCacheMiss(t *testing.T) {
	c := NewRestaurantCache(memory.NewRestaurantRepo(), time.Minute)

	r, err := c.FetchCandidate(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, r)
}
