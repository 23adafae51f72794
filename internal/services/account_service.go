package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/models"
	pkgauth "github.com/averlow/otpgate/pkg/auth"
)

// UserRepository defines the credential store operations the services need
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateMFA(ctx context.Context, id, status string, secretEnc, secretNonce []byte) error
}

// AccountService handles signup and password authentication
type AccountService struct {
	repo   UserRepository
	tm     *auth.TokenManager
	logger *slog.Logger
}

func NewAccountService(repo UserRepository, tm *auth.TokenManager, logger *slog.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		tm:     tm,
		logger: logger,
	}
}

// LoginResult carries the outcome of a successful password check. When MFA
// is required the token is a pending-MFA token, never a full session.
type LoginResult struct {
	User        *models.User
	Token       string
	MFARequired bool
}

// Signup creates a new user account.
func (s *AccountService) Signup(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		MFAStatus:    models.MFAStatusNone,
	}

	// No pre-lookup: the unique index decides duplicate races, not a
	// read-then-write check.
	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			s.logger.Info("signup failed: email already registered")
			return nil, models.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", createdUser.ID))

	return createdUser, nil
}

// Login verifies credentials and issues either a session token or, when MFA
// is enabled, a pending-MFA token. Unknown email and wrong password return
// the same error so responses never reveal whether an account exists.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		return nil, models.ErrInvalidCredentials
	}

	if user.MFAEnabled() {
		token, err := s.tm.IssuePending(user.ID, user.Email)
		if err != nil {
			s.logger.Error("failed to issue pending token", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.logger.Info("password accepted, second factor required", slog.String("user_id", user.ID))

		return &LoginResult{User: user, Token: token, MFARequired: true}, nil
	}

	token, err := s.tm.IssueSession(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{User: user, Token: token}, nil
}

// GetUser fetches a user for protected views.
func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}
