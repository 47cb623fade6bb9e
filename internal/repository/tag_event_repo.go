package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// TagEventRepo persists the immutable tag trail, ordered by timestamp.
type TagEventRepo interface {
	Append(ctx context.Context, ev *model.TagEvent) error
	ListBySession(ctx context.Context, sessionID string) ([]*model.TagEvent, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type tagEventRepo struct {
	collection *mongo.Collection
}

// NewTagEventRepo creates the repo and ensures the sessionId+timestamp index.
func NewTagEventRepo(db *mongo.Database) (TagEventRepo, error) {
	coll := db.Collection("tag_events")
	_, err := coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return nil, err
	}
	return &tagEventRepo{collection: coll}, nil
}

func (r *tagEventRepo) Append(ctx context.Context, ev *model.TagEvent) error {
	_, err := r.collection.InsertOne(ctx, ev)
	return err
}

func (r *tagEventRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.TagEvent, error) {
	cur, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []*model.TagEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *tagEventRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}
