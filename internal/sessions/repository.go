package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository provides session persistence operations
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, sid string) (*Session, error)
	Delete(ctx context.Context, sid string) error
}

// MongoRepository implements Repository using a Mongo collection. Used when
// Redis is not configured.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Save(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = now.Add(7 * 24 * time.Hour)
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"sid": s.SID}, s, opts)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, sid string) (*Session, error) {
	var s Session
	if err := r.col.FindOne(ctx, bson.M{"sid": sid}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	// expired documents are treated as missing and removed lazily
	if time.Now().UTC().After(s.ExpiresAt) {
		_, _ = r.col.DeleteOne(ctx, bson.M{"sid": sid})
		return nil, nil
	}
	return &s, nil
}

func (r *MongoRepository) Delete(ctx context.Context, sid string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"sid": sid})
	return err
}
