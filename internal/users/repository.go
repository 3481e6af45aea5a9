package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wtwinds/wtwinds-backend/internal/models"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	SetProfile(ctx context.Context, email string, p Profile) error
}

// Profile carries the fields submitted on the profile-completion page.
type Profile struct {
	Name       string
	Age        string
	College    string
	Profession string
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection.
// A unique index on email backs the one-document-per-email invariant.
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) Insert(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, u)
	return err
}

func (r *MongoUserRepository) SetProfile(ctx context.Context, email string, p Profile) error {
	update := bson.M{"$set": bson.M{
		"name":              p.Name,
		"age":               p.Age,
		"college":           p.College,
		"profession":        p.Profession,
		"profile_completed": true,
		"updatedAt":         time.Now().UTC(),
	}}
	_, err := r.col.UpdateOne(ctx, bson.M{"email": email}, update)
	return err
}
