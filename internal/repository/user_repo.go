package repository

import (
	"biteswipe/internal/model"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepo reads the account service's users collection
type UserRepo interface {
	Create(ctx context.Context, user *model.User) error
	Exists(ctx context.Context, id string) (bool, error)
	GetDisplayName(ctx context.Context, id string) (string, bool, error)
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{
		collection: db.Collection("users"),
	}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	// Generate ObjectID if not provided
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *userRepo) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *userRepo) GetDisplayName(ctx context.Context, id string) (string, bool, error) {
	var user model.User
	opts := options.FindOne().SetProjection(bson.M{"displayName": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return user.DisplayName, true, nil
}
