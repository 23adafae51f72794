package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/averlow/otpgate/internal/models"
	pkgauth "github.com/averlow/otpgate/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Signup_Success(t *testing.T) {
	var stored *models.User
	mockRepo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user123"
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			stored = user
			return user, nil
		},
	}

	svc := NewAccountService(mockRepo, newTestTokenManager(), slog.Default())

	user, err := svc.Signup(context.Background(), "  A@X.com ", " Ann ", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email) // normalized
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, models.MFAStatusNone, user.MFAStatus)

	// Stored hash verifies the original password and nothing else
	require.NotNil(t, stored)
	assert.NotEqual(t, "Secret123!", stored.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(stored.PasswordHash, "Secret123!"))
	assert.Error(t, pkgauth.ComparePassword(stored.PasswordHash, "Secret123"))
}

func TestAccountService_Signup_WeakPassword(t *testing.T) {
	mockRepo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			t.Fatal("Create must not be called for an invalid password")
			return nil, nil
		},
	}

	svc := NewAccountService(mockRepo, newTestTokenManager(), slog.Default())

	_, err := svc.Signup(context.Background(), "a@x.com", "Ann", "short")
	require.Error(t, err)

	var pve *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &pve)
}

func TestAccountService_Signup_DuplicateEmail(t *testing.T) {
	mockRepo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrDuplicateEmail
		},
	}

	svc := NewAccountService(mockRepo, newTestTokenManager(), slog.Default())

	_, err := svc.Signup(context.Background(), "a@x.com", "Ann", "Secret123!")
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func loginTestUser(t *testing.T, mfaStatus string) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword("Secret123!")
	require.NoError(t, err)

	return &models.User{
		ID:           "user123",
		Email:        "a@x.com",
		Name:         "Ann",
		PasswordHash: hash,
		MFAStatus:    mfaStatus,
	}
}

func TestAccountService_Login_Success_NoMFA(t *testing.T) {
	user := loginTestUser(t, models.MFAStatusNone)
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == "a@x.com" {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
	}

	tm := newTestTokenManager()
	svc := NewAccountService(mockRepo, tm, slog.Default())

	result, err := svc.Login(context.Background(), "a@x.com", "Secret123!")
	require.NoError(t, err)
	assert.False(t, result.MFARequired)

	// The issued token decodes straight back to the user's identity
	claims, err := tm.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeSession, claims.Type)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "user123", claims.UserID)
}

func TestAccountService_Login_WrongPassword(t *testing.T) {
	user := loginTestUser(t, models.MFAStatusNone)
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := NewAccountService(mockRepo, newTestTokenManager(), slog.Default())

	result, err := svc.Login(context.Background(), "a@x.com", "wrong")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAccountService_Login_UnknownUser_SameError(t *testing.T) {
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := NewAccountService(mockRepo, newTestTokenManager(), slog.Default())

	result, err := svc.Login(context.Background(), "nobody@x.com", "whatever")
	assert.Nil(t, result)

	// Identical error for unknown user and wrong password
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAccountService_Login_MFAEnabled_PendingTokenOnly(t *testing.T) {
	user := loginTestUser(t, models.MFAStatusEnabled)
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	tm := newTestTokenManager()
	svc := NewAccountService(mockRepo, tm, slog.Default())

	result, err := svc.Login(context.Background(), "a@x.com", "Secret123!")
	require.NoError(t, err)
	assert.True(t, result.MFARequired)

	// Correct credentials never yield a full session directly when MFA is on
	claims, err := tm.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeMFAPending, claims.Type)
}

func TestAccountService_Login_PendingSetupDoesNotRequireMFA(t *testing.T) {
	// A secret exists but the flag was never proven; login behaves as if
	// MFA were off
	user := loginTestUser(t, models.MFAStatusPending)
	user.MFASecretEnc = []byte("ciphertext")
	user.MFASecretNonce = []byte("nonce")

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	tm := newTestTokenManager()
	svc := NewAccountService(mockRepo, tm, slog.Default())

	result, err := svc.Login(context.Background(), "a@x.com", "Secret123!")
	require.NoError(t, err)
	assert.False(t, result.MFARequired)

	claims, err := tm.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeSession, claims.Type)
}
