package main

import (
	"biteswipe/internal/config"
	"biteswipe/internal/model"
	"biteswipe/internal/repository"
	"biteswipe/internal/service"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type seedRestaurant struct {
	name, cuisine, address, price string
	rating                        float64
	lat, lng                      float64
}

// Around the UBC campus, Vancouver
var restaurants = []seedRestaurant{
	{"Sushi Oyama", "Japanese", "6063 University Blvd", "$$", 4.3, 49.2665, -123.2445},
	{"Mercante", "Italian", "6120 University Blvd", "$$", 4.1, 49.2662, -123.2432},
	{"Pacific Poke", "Hawaiian", "5728 University Blvd", "$", 4.0, 49.2660, -123.2400},
	{"Hubbub", "Sandwiches", "6138 Student Union Blvd", "$", 4.2, 49.2668, -123.2500},
	{"Jamjar Canteen", "Lebanese", "6035 University Blvd", "$", 4.5, 49.2664, -123.2441},
	{"Mahony & Sons", "Pub", "5990 University Blvd", "$$", 3.9, 49.2658, -123.2420},
	{"Pho Mai", "Vietnamese", "5736 Dalhousie Rd", "$", 4.1, 49.2671, -123.2390},
	{"Koerner's Pub", "Pub", "6371 Crescent Rd", "$$", 4.0, 49.2695, -123.2554},
}

var users = []model.User{
	{ID: "user-alice", Email: "alice@example.com", DisplayName: "Alice"},
	{ID: "user-bob", Email: "bob@example.com", DisplayName: "Bob"},
	{ID: "user-carol", Email: "carol@example.com", DisplayName: "Carol"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Store.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Store.MongoDatabase)
	restaurantRepo := repository.NewRestaurantRepo(ctx, db, 0, zap.NewNop())
	userRepo := repository.NewUserRepo(db)

	now := time.Now()
	for _, r := range restaurants {
		err := restaurantRepo.Upsert(ctx, &model.Restaurant{
			// stable ids keep re-runs idempotent
			ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte("biteswipe/restaurant/"+r.name)).String(),
			Name:       r.name,
			Cuisine:    r.cuisine,
			Address:    r.address,
			Rating:     r.rating,
			PriceRange: r.price,
			Location:   model.NewGeoPoint(model.Location{Latitude: r.lat, Longitude: r.lng}),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			log.Fatalf("Failed to upsert restaurant %s: %v", r.name, err)
		}
	}
	fmt.Printf("Seeded %d restaurants\n", len(restaurants))

	auth := service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	for _, u := range users {
		exists, err := userRepo.Exists(ctx, u.ID)
		if err != nil {
			log.Fatalf("Failed to look up user %s: %v", u.ID, err)
		}
		if !exists {
			u.CreatedAt = now
			if err := userRepo.Create(ctx, &u); err != nil {
				log.Fatalf("Failed to create user %s: %v", u.ID, err)
			}
		}

		token, err := auth.GenerateUserToken(u.ID)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", u.ID, err)
		}
		fmt.Printf("%-12s %s\n", u.DisplayName, token)
	}
}
