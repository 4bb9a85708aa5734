package services

import (
	"context"
	"fmt"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/observability"
	"github.com/flowsync/server/internal/repository"
)

// AuthService handles registration, login, and API key lookup. The API
// key is the per-device credential; only its hash is stored, so login
// rotates the key and returns the fresh value for the device to keep.
type AuthService struct {
	userRepo repository.UserRepo
	metrics  *observability.BusinessMetrics
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepo) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// SetMetrics sets the business metrics instruments
func (s *AuthService) SetMetrics(metrics *observability.BusinessMetrics) {
	s.metrics = metrics
}

// Register creates an account and returns the user with the plaintext
// API key set; the key is not retrievable again.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, err := models.NewUser(req.Email, req.DisplayName)
	if err != nil {
		return nil, err
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, models.ErrEmailExists
	}

	if err := s.userRepo.Add(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.recordAttempt(ctx, "register", true)
	return user, nil
}

// Login verifies credentials and rotates the API key. Existing devices
// keep working until their key is rotated out from under them; this is
// the trade-off of storing only the hash.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}
	if user == nil || !user.IsActive || !user.VerifyPassword(req.Password) {
		s.recordAttempt(ctx, "password", false)
		return nil, models.ErrInvalidPassword
	}

	apiKey, err := models.GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	user.APIKeyHash = models.HashAPIKey(apiKey)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to rotate API key: %w", err)
	}

	s.recordAttempt(ctx, "password", true)
	return &models.LoginResponse{
		User:   user.ToResponse(),
		APIKey: apiKey,
	}, nil
}

// GetUserByAPIKey resolves the user owning an API key, or nil
func (s *AuthService) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	user, err := s.userRepo.GetByAPIKeyHash(ctx, models.HashAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) recordAttempt(ctx context.Context, method string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(ctx, method, success)
	}
}
