package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/wtwinds/wtwinds-backend/internal/models"
)

// ErrEmailTaken is returned by Signup when the email already has an account.
var ErrEmailTaken = errors.New("email already registered")

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// EnsureVerified finds the user for a successfully verified OTP email, creating
// the account on first verification. Repeated verifications never duplicate it.
func (s *Service) EnsureVerified(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	u = &models.User{
		Email:            email,
		Verified:         true,
		ProfileCompleted: false,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Signup creates a password account with an incomplete profile.
func (s *Service) Signup(ctx context.Context, email, password string) (*models.User, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:            email,
		PasswordHash:     string(hash),
		ProfileCompleted: false,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies email+password. Returns (nil, nil) on bad credentials
// so callers can distinguish auth failure from storage errors.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return u, nil
}

// CompleteProfile overwrites the profile fields and marks the profile complete.
func (s *Service) CompleteProfile(ctx context.Context, email string, p Profile) error {
	return s.repo.SetProfile(ctx, email, p)
}
