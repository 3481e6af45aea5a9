package posts

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wtwinds/wtwinds-backend/internal/models"
)

// MemoryRepo is a simple in-memory repository used by unit tests. It keeps
// insertion order so the newest-first listing matches the Mongo sort.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	store map[primitive.ObjectID]*models.Post
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*models.Post)}
}

func (m *MemoryRepo) Insert(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	cp := *p
	m.store[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *MemoryRepo) ListNewestFirst(ctx context.Context) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Post, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if p, ok := m.store[m.order[i]]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepo) AddLike(ctx context.Context, id primitive.ObjectID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		p.Likes = append(p.Likes, email)
	}
	return nil
}

func (m *MemoryRepo) RemoveLike(ctx context.Context, id primitive.ObjectID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		out := p.Likes[:0]
		for _, e := range p.Likes {
			if e != email {
				out = append(out, e)
			}
		}
		p.Likes = out
	}
	return nil
}

func (m *MemoryRepo) AppendComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		p.Comments = append(p.Comments, c)
	}
	return nil
}

func (m *MemoryRepo) DeleteOwned(ctx context.Context, id primitive.ObjectID, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Email != email {
		return 0, nil
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return 1, nil
}
