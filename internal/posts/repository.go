package posts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wtwinds/wtwinds-backend/internal/models"
)

// ErrNotFound is returned when a post id matches nothing.
var ErrNotFound = errors.New("post not found")

// PostRepository defines persistence operations for posts. Like and comment
// mutations are single-document updates, so concurrent toggles rely on the
// store's per-document atomicity rather than any app-level locking.
type PostRepository interface {
	Insert(ctx context.Context, p *models.Post) error
	ListNewestFirst(ctx context.Context) ([]*models.Post, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	AddLike(ctx context.Context, id primitive.ObjectID, email string) error
	RemoveLike(ctx context.Context, id primitive.ObjectID, email string) error
	AppendComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error
	DeleteOwned(ctx context.Context, id primitive.ObjectID, email string) (int64, error)
}

// MongoPostRepository implements PostRepository using MongoDB
type MongoPostRepository struct {
	col *mongo.Collection
}

func NewMongoPostRepository(col *mongo.Collection) *MongoPostRepository {
	return &MongoPostRepository{col: col}
}

func (r *MongoPostRepository) Insert(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	_, err := r.col.InsertOne(ctx, p)
	return err
}

// ListNewestFirst returns every post sorted by _id descending. ObjectIDs are
// insertion-ordered, so this is the most-recent-first feed.
func (r *MongoPostRepository) ListNewestFirst(ctx context.Context) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Post{}
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (r *MongoPostRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoPostRepository) AddLike(ctx context.Context, id primitive.ObjectID, email string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"likes": email}})
	return err
}

func (r *MongoPostRepository) RemoveLike(ctx context.Context, id primitive.ObjectID, email string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"likes": email}})
	return err
}

// AppendComment pushes onto the comment array. No existence check: appending
// to an unknown id is a silent no-op at the database layer.
func (r *MongoPostRepository) AppendComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"comments": c}})
	return err
}

// DeleteOwned deletes only when the id AND the author email match, so a
// non-owner delete removes nothing.
func (r *MongoPostRepository) DeleteOwned(ctx context.Context, id primitive.ObjectID, email string) (int64, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "email": email})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
