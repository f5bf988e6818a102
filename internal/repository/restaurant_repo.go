package repository

import (
	"biteswipe/internal/model"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const earthRadiusMeters = 6378100.0

// RestaurantRepo is the catalog of restaurants sessions are seeded from
type RestaurantRepo interface {
	FetchCandidates(ctx context.Context, loc model.Location, radius float64) ([]*model.Restaurant, error)
	FetchCandidate(ctx context.Context, id string) (*model.Restaurant, error)
	Upsert(ctx context.Context, restaurant *model.Restaurant) error
}

type restaurantRepo struct {
	collection *mongo.Collection
	limit      int64
}

// NewRestaurantRepo creates the Mongo restaurant catalog. limit caps how many
// candidates a single session is seeded with.
func NewRestaurantRepo(ctx context.Context, db *mongo.Database, limit int64, log *zap.Logger) RestaurantRepo {
	r := &restaurantRepo{
		collection: db.Collection("restaurants"),
		limit:      limit,
	}
	createIndex(ctx, log, r.collection, bson.D{{Key: "location", Value: "2dsphere"}}, false)
	return r
}

func (r *restaurantRepo) FetchCandidates(ctx context.Context, loc model.Location, radius float64) ([]*model.Restaurant, error) {
	filter := bson.M{
		"location": bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{
				bson.A{loc.Longitude, loc.Latitude},
				radius / earthRadiusMeters,
			},
		}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}})
	if r.limit > 0 {
		opts.SetLimit(r.limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var restaurants []*model.Restaurant
	if err := cursor.All(ctx, &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (r *restaurantRepo) FetchCandidate(ctx context.Context, id string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&restaurant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepo) Upsert(ctx context.Context, restaurant *model.Restaurant) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": restaurant.ID},
		restaurant,
		options.Replace().SetUpsert(true),
	)
	return err
}
