package repository

import (
	"biteswipe/internal/model"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SessionRepo is the session store contract.
//
// Reads return (nil, nil) when nothing matches. The conditional methods apply
// their update atomically only if the whole predicate holds on the stored
// document at write time, returning the updated document; when the predicate
// does not hold they return (nil, nil) and leave the document untouched. They
// never report which clause failed.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	// GetByJoinCode prefers the non-completed session holding the code and
	// falls back to the most recent completed one.
	GetByJoinCode(ctx context.Context, joinCode string) (*model.Session, error)
	JoinCodeInUse(ctx context.Context, joinCode string) (bool, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*model.Session, error)
	// ListExpired returns open sessions whose expiresAt is at or before now,
	// and completed sessions that have no final selection recorded.
	ListExpired(ctx context.Context, now time.Time) ([]*model.Session, error)

	// AddInvitation: not completed, inviter is a participant, user neither
	// participant nor invited. Adds the user to pendingInvitations and doneSwiping.
	AddInvitation(ctx context.Context, id, inviterID, userID string) (*model.Session, error)
	// AcceptInvitation: code matches a non-completed session, user invited and
	// not a participant. Moves the user from pendingInvitations to participants.
	AcceptInvitation(ctx context.Context, joinCode, userID string) (*model.Session, error)
	// DeclineInvitation: not completed, user invited. Removes the user from
	// pendingInvitations and doneSwiping.
	DeclineInvitation(ctx context.Context, id, userID string) (*model.Session, error)
	// RemoveParticipant: not completed, user is a participant but not the
	// creator. Removes the user from participants and doneSwiping.
	RemoveParticipant(ctx context.Context, id, userID string) (*model.Session, error)
	// AppendPreference: MATCHING, candidate belongs to the session, user is a
	// participant with no preference for that candidate yet.
	AppendPreference(ctx context.Context, id, userID string, pref model.Preference) (*model.Session, error)
	// MarkDoneSwiping: MATCHING, user is a participant. Removes the user from doneSwiping.
	MarkDoneSwiping(ctx context.Context, id, userID string) (*model.Session, error)
	// Start: CREATED and creatorID is the creator. Sets MATCHING and lowers
	// expiresAt to the given deadline if it is earlier.
	Start(ctx context.Context, id, creatorID string, startedAt, deadline time.Time) (*model.Session, error)
	// MarkCompleted: not completed. Sets COMPLETED.
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) (*model.Session, error)
	// RecordResult: COMPLETED and no final selection yet. Stores tallied
	// candidates and the final selection.
	RecordResult(ctx context.Context, id string, candidates []model.Candidate, selection model.FinalSelection) (*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
	log        *zap.Logger
}

// NewSessionRepo creates the Mongo session store and ensures its indexes
func NewSessionRepo(ctx context.Context, db *mongo.Database, log *zap.Logger) SessionRepo {
	r := &sessionRepo{
		collection: db.Collection("sessions"),
		log:        log,
	}
	r.ensureIndexes(ctx)
	return r
}

func (r *sessionRepo) ensureIndexes(ctx context.Context) {
	createIndex(ctx, r.log, r.collection, bson.D{{Key: "joinCode", Value: 1}, {Key: "status", Value: 1}}, false)
	createIndex(ctx, r.log, r.collection, bson.D{{Key: "creator", Value: 1}, {Key: "createdAt", Value: -1}}, false)
	createIndex(ctx, r.log, r.collection, bson.D{{Key: "participants.userId", Value: 1}}, false)
	createIndex(ctx, r.log, r.collection, bson.D{{Key: "pendingInvitations", Value: 1}}, false)
	createIndex(ctx, r.log, r.collection, bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}, false)
}

var notCompleted = bson.M{"$ne": model.SessionCompleted}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *sessionRepo) GetByJoinCode(ctx context.Context, joinCode string) (*model.Session, error) {
	session, err := r.findOne(ctx, bson.M{"joinCode": joinCode, "status": notCompleted})
	if err != nil || session != nil {
		return session, err
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findOne(ctx, bson.M{"joinCode": joinCode}, opts)
}

func (r *sessionRepo) JoinCodeInUse(ctx context.Context, joinCode string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"joinCode": joinCode, "status": notCompleted},
		options.Count().SetLimit(1),
	)
	return n > 0, err
}

func (r *sessionRepo) ListActiveByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	filter := bson.M{
		"status": notCompleted,
		"$or": bson.A{
			bson.M{"creator": userID},
			bson.M{"participants.userId": userID},
			bson.M{"pendingInvitations": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *sessionRepo) ListExpired(ctx context.Context, now time.Time) ([]*model.Session, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"status": notCompleted, "expiresAt": bson.M{"$lte": now}},
		bson.M{"status": model.SessionCompleted, "finalSelection": bson.M{"$exists": false}},
	}}
	return r.find(ctx, filter)
}

func (r *sessionRepo) AddInvitation(ctx context.Context, id, inviterID, userID string) (*model.Session, error) {
	filter := bson.M{
		"_id":                 id,
		"status":              notCompleted,
		"participants.userId": bson.M{"$eq": inviterID, "$ne": userID},
		"pendingInvitations":  bson.M{"$ne": userID},
	}
	update := bson.M{"$addToSet": bson.M{"pendingInvitations": userID, "doneSwiping": userID}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) AcceptInvitation(ctx context.Context, joinCode, userID string) (*model.Session, error) {
	filter := bson.M{
		"joinCode":            joinCode,
		"status":              notCompleted,
		"pendingInvitations":  userID,
		"participants.userId": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$pull": bson.M{"pendingInvitations": userID},
		"$push": bson.M{"participants": model.Participant{UserID: userID, Preferences: []model.Preference{}}},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) DeclineInvitation(ctx context.Context, id, userID string) (*model.Session, error) {
	filter := bson.M{
		"_id":                id,
		"status":             notCompleted,
		"pendingInvitations": userID,
	}
	update := bson.M{"$pull": bson.M{"pendingInvitations": userID, "doneSwiping": userID}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) RemoveParticipant(ctx context.Context, id, userID string) (*model.Session, error) {
	filter := bson.M{
		"_id":                 id,
		"status":              notCompleted,
		"creator":             bson.M{"$ne": userID},
		"participants.userId": userID,
	}
	update := bson.M{"$pull": bson.M{
		"participants": bson.M{"userId": userID},
		"doneSwiping":  userID,
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) AppendPreference(ctx context.Context, id, userID string, pref model.Preference) (*model.Session, error) {
	// The negated $elemMatch is what keeps concurrent duplicate swipes out:
	// only one writer can observe the pair as absent.
	filter := bson.M{
		"_id":                    id,
		"status":                 model.SessionMatching,
		"candidates.candidateId": pref.CandidateID,
		"participants.userId":    userID,
		"participants": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"userId":                  userID,
			"preferences.candidateId": pref.CandidateID,
		}}},
	}
	update := bson.M{"$push": bson.M{"participants.$[p].preferences": pref}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"p.userId": userID}}})
	return r.findOneAndUpdate(ctx, filter, update, opts)
}

func (r *sessionRepo) MarkDoneSwiping(ctx context.Context, id, userID string) (*model.Session, error) {
	filter := bson.M{
		"_id":                 id,
		"status":              model.SessionMatching,
		"participants.userId": userID,
	}
	update := bson.M{"$pull": bson.M{"doneSwiping": userID}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) Start(ctx context.Context, id, creatorID string, startedAt, deadline time.Time) (*model.Session, error) {
	filter := bson.M{
		"_id":     id,
		"creator": creatorID,
		"status":  model.SessionCreated,
	}
	update := bson.M{
		"$set": bson.M{"status": model.SessionMatching, "startedAt": startedAt},
		"$min": bson.M{"expiresAt": deadline},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) MarkCompleted(ctx context.Context, id string, completedAt time.Time) (*model.Session, error) {
	filter := bson.M{"_id": id, "status": notCompleted}
	update := bson.M{"$set": bson.M{"status": model.SessionCompleted, "completedAt": completedAt}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) RecordResult(ctx context.Context, id string, candidates []model.Candidate, selection model.FinalSelection) (*model.Session, error) {
	filter := bson.M{
		"_id":            id,
		"status":         model.SessionCompleted,
		"finalSelection": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"candidates": candidates, "finalSelection": selection}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, filter, opts...).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Session, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M, opts ...*options.FindOneAndUpdateOptions) (*model.Session, error) {
	if len(opts) == 0 {
		opts = []*options.FindOneAndUpdateOptions{options.FindOneAndUpdate().SetReturnDocument(options.After)}
	}
	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts...).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func createIndex(ctx context.Context, log *zap.Logger, coll *mongo.Collection, keys bson.D, unique bool) {
	opts := options.Index().SetUnique(unique)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		log.Warn("failed to create index", zap.String("collection", coll.Name()), zap.Error(err))
	}
}
