package auth

import (
	"testing"
	"time"

	"github.com/averlow/otpgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-secret-for-token-tests", 30*time.Minute, 5*time.Minute)
}

func TestTokenManager_IssueSession_ClaimsRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	token, err := tm.IssueSession("user123", "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeSession, claims.Type)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_IssuePending_TypeAndExpiry(t *testing.T) {
	tm := newTestTokenManager()

	token, err := tm.IssuePending("user123", "a@x.com")
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeMFAPending, claims.Type)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_Verify_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret-for-token-tests", -1*time.Minute, -1*time.Minute)

	token, err := tm.IssueSession("user123", "a@x.com")
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_Verify_WrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager("a-completely-different-secret", 30*time.Minute, 5*time.Minute)

	token, err := tm.IssueSession("user123", "a@x.com")
	require.NoError(t, err)

	claims, err := other.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestTokenManager_Verify_Malformed(t *testing.T) {
	tm := newTestTokenManager()

	for _, garbage := range []string{"", "not-a-token", "a.b.c"} {
		claims, err := tm.Verify(garbage)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrTokenMalformed, "input %q", garbage)
	}
}

func TestTokenManager_SecretRotationInvalidatesTokens(t *testing.T) {
	tm := newTestTokenManager()

	token, err := tm.IssueSession("user123", "a@x.com")
	require.NoError(t, err)

	// Rotating the signing secret invalidates every outstanding token
	rotated := NewTokenManager("rotated-secret-value-here", 30*time.Minute, 5*time.Minute)
	_, err = rotated.Verify(token)
	assert.Error(t, err)
}
