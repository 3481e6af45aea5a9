package posts

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wtwinds/wtwinds-backend/internal/models"
)

// Service wraps the repository with feed business logic
type Service struct {
	repo PostRepository
}

func NewService(r PostRepository) *Service {
	return &Service{repo: r}
}

// Create inserts a post with empty likes/comments. Empty content is ignored
// without error, matching the dashboard contract.
func (s *Service) Create(ctx context.Context, email, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	p := &models.Post{Email: email, Content: content}
	return s.repo.Insert(ctx, p)
}

// Feed returns all posts, most recent first.
func (s *Service) Feed(ctx context.Context) ([]*models.Post, error) {
	return s.repo.ListNewestFirst(ctx)
}

// ToggleLike flips the user's membership in the post's likes list and reports
// whether the post is now liked. Returns ErrNotFound for unknown ids.
func (s *Service) ToggleLike(ctx context.Context, id primitive.ObjectID, email string) (bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, ErrNotFound
	}
	if p.LikedBy(email) {
		return false, s.repo.RemoveLike(ctx, id, email)
	}
	return true, s.repo.AddLike(ctx, id, email)
}

// Comment appends {user, text} to the post. Empty text is ignored; an unknown
// id is a silent no-op at the store.
func (s *Service) Comment(ctx context.Context, id primitive.ObjectID, email, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.repo.AppendComment(ctx, id, models.Comment{User: email, Text: text})
}

// Delete removes the post only when the caller authored it.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID, email string) error {
	_, err := s.repo.DeleteOwned(ctx, id, email)
	return err
}
