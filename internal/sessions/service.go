package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Service wraps repository operations with session lifecycle logic
type Service struct {
	repo Repository
	ttl  time.Duration
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{repo: r, ttl: ttl}
}

// Create stores a fresh empty session and returns it.
func (s *Service) Create(ctx context.Context) (*Session, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &Session{
		SID:       hex.EncodeToString(b),
		Step:      StepEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session for sid, or nil when unknown or expired.
func (s *Service) Get(ctx context.Context, sid string) (*Session, error) {
	return s.repo.Get(ctx, sid)
}

// Save persists handler-side mutations of an existing session.
func (s *Service) Save(ctx context.Context, sess *Session) error {
	return s.repo.Save(ctx, sess)
}

// Delete removes the session entirely (logout / change-email).
func (s *Service) Delete(ctx context.Context, sid string) error {
	return s.repo.Delete(ctx, sid)
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }
