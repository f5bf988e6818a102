package app

import (
	"biteswipe/internal/cache"
	"biteswipe/internal/config"
	"biteswipe/internal/notify"
	"biteswipe/internal/repository"
	"biteswipe/internal/repository/memory"
	"biteswipe/internal/service"
	"biteswipe/internal/transport/rest"
	"biteswipe/internal/transport/ws"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	candidateLimit     = 50
	restaurantCacheTTL = 10 * time.Minute
	sessionCacheTTL    = 30 * time.Second
)

// App holds the wired process: stores, coordinator, notifiers and router
type App struct {
	Config *config.Config
	Log    *zap.Logger

	SessionRepo    repository.SessionRepo
	RestaurantRepo repository.RestaurantRepo
	UserRepo       repository.UserRepo

	Sessions  *service.SessionService
	Auth      *service.AuthService
	Scheduler *service.ExpiryScheduler
	Hub       *ws.Hub
	Router    http.Handler

	closers []func(ctx context.Context) error
}

// New connects the configured backends and wires every component
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if err := a.openStore(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	catalog := cache.NewRestaurantCache(a.RestaurantRepo, restaurantCacheTTL)
	a.Sessions = service.NewSessionService(a.SessionRepo, catalog, a.UserRepo, log.Named("session"), service.SessionOptions{
		SessionTTL:       cfg.Rules.SessionTTL,
		MatchingDuration: cfg.Rules.MatchingDuration,
		JoinCodeAttempts: cfg.Rules.JoinCodeAttempts,
	})

	if cfg.Store.RedisURI != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to ping Redis: %w", err)
		}
		a.Sessions.SetCache(cache.NewSessionCache(rdb, sessionCacheTTL))
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr()))
	}

	a.Hub = ws.NewHub(log.Named("ws"))
	a.closers = append(a.closers, func(context.Context) error { a.Hub.Close(); return nil })
	notifiers := notify.Multi{a.Hub}

	if cfg.App.NatsURL != "" {
		nn, err := notify.NewNATSNotifier(cfg.App.NatsURL, log.Named("nats"))
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { nn.Close(); return nil })
		notifiers = append(notifiers, nn)
		log.Info("connected to NATS", zap.String("url", cfg.App.NatsURL))
	}
	a.Sessions.SetNotifier(notifiers)

	a.Scheduler = service.NewExpiryScheduler(func(ctx context.Context, sessionID string) error {
		_, err := a.Sessions.ForceComplete(ctx, sessionID)
		return err
	}, log.Named("expiry"))
	a.closers = append(a.closers, func(context.Context) error { a.Scheduler.Stop(); return nil })
	a.Sessions.SetScheduler(a.Scheduler)

	a.Auth = service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Router = rest.NewRouter(&rest.Container{
		AuthService:    a.Auth,
		SessionService: a.Sessions,
		WSHub:          a.Hub,
		Logger:         log.Named("http"),
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Store.Driver {
	case config.StoreMemory:
		a.SessionRepo = memory.NewSessionRepo()
		a.RestaurantRepo = memory.NewRestaurantRepo()
		a.UserRepo = memory.NewUserRepo()
		a.Log.Warn("using in-memory store, data is lost on restart")
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.Store.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, client.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	a.Log.Info("connected to MongoDB", zap.String("database", a.Config.Store.MongoDatabase))

	db := client.Database(a.Config.Store.MongoDatabase)
	a.SessionRepo = repository.NewSessionRepo(ctx, db, a.Log.Named("store"))
	a.RestaurantRepo = repository.NewRestaurantRepo(ctx, db, candidateLimit, a.Log.Named("store"))
	a.UserRepo = repository.NewUserRepo(db)
	return nil
}

// RunSweeper force-completes expired sessions every SWEEP_INTERVAL until ctx ends
func (a *App) RunSweeper(ctx context.Context) {
	service.RunSweeper(ctx, a.Config.Rules.SweepInterval, a.Sessions.SweepExpired, a.Log.Named("expiry"))
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Log.Warn("failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
