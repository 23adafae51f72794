package services

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/models"
	"github.com/stretchr/testify/require"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	UpdateMFAFunc  func(ctx context.Context, id, status string, secretEnc, secretNonce []byte) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) UpdateMFA(ctx context.Context, id, status string, secretEnc, secretNonce []byte) error {
	if m.UpdateMFAFunc != nil {
		return m.UpdateMFAFunc(ctx, id, status, secretEnc, secretNonce)
	}
	return nil
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("service-test-signing-secret", 30*time.Minute, 5*time.Minute)
}

func newTestTOTPManager(t *testing.T) *auth.TOTPManager {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	tm, err := auth.NewTOTPManager(key, "OTPGate")
	require.NoError(t, err)
	return tm
}
