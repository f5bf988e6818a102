package memory

import (
	"biteswipe/internal/model"
	"biteswipe/internal/repository"
	"context"
	"math"
	"sync"
)

const earthRadiusMeters = 6378100.0

// RestaurantRepo is an in-process restaurant catalog
type RestaurantRepo struct {
	mu          sync.RWMutex
	restaurants map[string]*model.Restaurant
	order       []string
}

var _ repository.RestaurantRepo = (*RestaurantRepo)(nil)

func NewRestaurantRepo() *RestaurantRepo {
	return &RestaurantRepo{restaurants: make(map[string]*model.Restaurant)}
}

// FetchCandidates returns restaurants within radius meters of loc, in insertion order.
func (r *RestaurantRepo) FetchCandidates(_ context.Context, loc model.Location, radius float64) ([]*model.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Restaurant
	for _, id := range r.order {
		rest := r.restaurants[id]
		if len(rest.Location.Coordinates) != 2 {
			continue
		}
		at := model.Location{Longitude: rest.Location.Coordinates[0], Latitude: rest.Location.Coordinates[1]}
		if distanceMeters(loc, at) <= radius {
			c := *rest
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *RestaurantRepo) FetchCandidate(_ context.Context, id string) (*model.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rest, ok := r.restaurants[id]
	if !ok {
		return nil, nil
	}
	c := *rest
	return &c, nil
}

func (r *RestaurantRepo) Upsert(_ context.Context, restaurant *model.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.restaurants[restaurant.ID]; !ok {
		r.order = append(r.order, restaurant.ID)
	}
	c := *restaurant
	r.restaurants[restaurant.ID] = &c
	return nil
}

// UserRepo is an in-process identity store
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

var _ repository.UserRepo = (*UserRepo)(nil)

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*model.User)}
}

func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *UserRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *UserRepo) GetDisplayName(_ context.Context, id string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return "", false, nil
	}
	return u.DisplayName, true, nil
}

// haversine
func distanceMeters(a, b model.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
