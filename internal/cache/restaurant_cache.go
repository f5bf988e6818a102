package cache

import (
	"biteswipe/internal/model"
	"biteswipe/internal/repository"
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// RestaurantCache memoizes catalog lookups by id in process. Candidate
// searches by location always go to the catalog.
type RestaurantCache struct {
	repository.RestaurantRepo
	cache *gocache.Cache
}

func NewRestaurantCache(repo repository.RestaurantRepo, ttl time.Duration) *RestaurantCache {
	return &RestaurantCache{
		RestaurantRepo: repo,
		cache:          gocache.New(ttl, 2*ttl),
	}
}

func (c *RestaurantCache) FetchCandidate(ctx context.Context, id string) (*model.Restaurant, error) {
	if x, found := c.cache.Get(id); found {
		r := *x.(*model.Restaurant)
		return &r, nil
	}
	r, err := c.RestaurantRepo.FetchCandidate(ctx, id)
	if err != nil || r == nil {
		return r, err
	}
	stored := *r
	c.cache.Set(id, &stored, gocache.DefaultExpiration)
	return r, nil
}

func (c *RestaurantCache) FetchCandidates(ctx context.Context, loc model.Location, radius float64) ([]*model.Restaurant, error) {
	restaurants, err := c.RestaurantRepo.FetchCandidates(ctx, loc, radius)
	if err != nil {
		return nil, err
	}
	for _, r := range restaurants {
		stored := *r
		c.cache.Set(r.ID, &stored, gocache.DefaultExpiration)
	}
	return restaurants, nil
}

func (c *RestaurantCache) Upsert(ctx context.Context, restaurant *model.Restaurant) error {
	if err := c.RestaurantRepo.Upsert(ctx, restaurant); err != nil {
		return err
	}
	c.cache.Delete(restaurant.ID)
	return nil
}
