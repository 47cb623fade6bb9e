// Package repository is the durable tier: MongoDB collections for session
// aggregates and the tag-event audit trail. Only coarse milestones (create,
// join, start, tag, end) are written here; live locations never are.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// SessionRepo persists session aggregates. A missing document is (nil, nil).
type SessionRepo interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByJoinCode(ctx context.Context, code string) (*model.Session, error)
	Update(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, id string) error
	// ListEndedBefore returns ids of ended sessions older than the cutoff,
	// for the retention sweep.
	ListEndedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates the repo and ensures the unique join-code index.
func NewSessionRepo(db *mongo.Database) (SessionRepo, error) {
	coll := db.Collection("sessions")
	_, err := coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "joinCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &sessionRepo{collection: coll}, nil
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *sessionRepo) GetByJoinCode(ctx context.Context, code string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"joinCode": code})
}

func (r *sessionRepo) findOne(ctx context.Context, filter bson.M) (*model.Session, error) {
	var s model.Session
	err := r.collection.FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Update(ctx context.Context, s *model.Session) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *sessionRepo) ListEndedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	cur, err := r.collection.Find(ctx, bson.M{
		"status":  model.SessionEnded,
		"endedAt": bson.M{"$lt": cutoff},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}
