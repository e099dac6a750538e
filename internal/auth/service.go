package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of an admin session token.
const TokenTTL = 30 * 24 * time.Hour

// MinPasswordLength is the shortest accepted new password.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials is returned for an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrWrongPassword is returned when the current password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrPasswordTooShort is returned for new passwords under MinPasswordLength.
	ErrPasswordTooShort = errors.New("new password must be at least 6 characters")
)

// Store is the admin persistence used by Service.
type Store interface {
	Create(ctx context.Context, a *Admin) error
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Service contains the admin authentication logic.
type Service struct {
	repo   Store
	secret []byte
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewService creates a new auth Service.
func NewService(repo Store, jwtSecret string, clock clockwork.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		secret: []byte(jwtSecret),
		clock:  clock,
		logger: logger.With("component", "auth_service"),
	}
}

// Login verifies credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Admin, error) {
	a, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(a)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, a, nil
}

// ChangePassword replaces the admin's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, adminID, current, next string) error {
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	a, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, adminID, string(hash)); err != nil {
		return err
	}

	s.logger.Info("admin password changed", "admin_id", adminID)
	return nil
}

// Bootstrap creates the initial admin when no account with that username exists.
func (s *Service) Bootstrap(ctx context.Context, username, password, name string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if name == "" {
		name = username
	}

	a := &Admin{ID: "adm_" + uuid.NewString(), Username: username, Name: name, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, a); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return err
	}

	s.logger.Info("bootstrap admin created", "username", username)
	return nil
}

func (s *Service) issueToken(a *Admin) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"id":   a.ID,
		"name": a.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
