package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kinship/internal/models"
	"kinship/internal/repository"
	"kinship/internal/security"
	"kinship/internal/validation"
)

// AuthService handles registration, login and bearer token validation
type AuthService struct {
	userRepo      *repository.UserRepository
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		tokenDuration: tokenDuration,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, email, hash, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns the user with a signed bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := security.IssueAPIToken(s.jwtSecret, user.ID, user.Email, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// IssueToken signs a bearer token for an already authenticated user. Used at
// the end of the OAuth flow.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	return security.IssueAPIToken(s.jwtSecret, user.ID, user.Email, s.tokenDuration)
}

// ValidateToken parses a bearer token and loads the user it names
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := security.ParseAPIToken(s.jwtSecret, tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := security.UserIDFromClaims(claims)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, security.ErrInvalidAPIToken
	}
	return user, nil
}

// GetOrCreateOAuthUser finds a user by the email asserted by the OAuth
// provider, creating an account with no password on first login
func (s *AuthService) GetOrCreateOAuthUser(ctx context.Context, email, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if strings.TrimSpace(name) == "" {
		name = email
	}
	user, err = s.userRepo.Create(ctx, email, "", strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
