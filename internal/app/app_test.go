package app

import (
	"biteswipe/internal/config"
	"biteswipe/internal/model"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_URI", "")
	t.Setenv("NATS_URL", "")
	cfg, err := config.Parse()
	require.NoError(t, err)
	return cfg
}

func TestNewWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close(ctx)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	here := model.Location{Latitude: 40.7128, Longitude: -74.0060}
	require.NoError(t, a.RestaurantRepo.Upsert(ctx, &model.Restaurant{ID: "R1", Name: "Deli", Location: model.NewGeoPoint(here)}))
	require.NoError(t, a.UserRepo.Create(ctx, &model.User{ID: "U1", DisplayName: "Ada"}))

	s, err := a.Sessions.CreateSession(ctx, "U1", model.SessionSettings{Location: here, Radius: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Scheduler.Pending())

	started, err := a.Sessions.StartSession(ctx, s.ID, "U1", 1)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), started.ExpiresAt, 5*time.Second)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Store.RedisURI = "redis://127.0.0.1:1"

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
