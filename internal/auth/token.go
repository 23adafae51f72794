package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/averlow/otpgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures. Handlers treat all three uniformly as
// unauthorized; the distinction exists for logging.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// TokenManager issues and verifies signed session tokens. Sessions are not
// stored server-side: the token is the session, and rotating the signing
// secret invalidates every outstanding token.
type TokenManager struct {
	secret             []byte
	sessionTokenExpiry time.Duration
	pendingTokenExpiry time.Duration
}

// NewTokenManager creates a TokenManager with an explicit signing secret.
// The secret is configuration, never a package-level variable.
func NewTokenManager(secret string, sessionExpiry, pendingExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             []byte(secret),
		sessionTokenExpiry: sessionExpiry,
		pendingTokenExpiry: pendingExpiry,
	}
}

// IssueSession creates a full session token granting protected-route access.
func (tm *TokenManager) IssueSession(userID, email string) (string, error) {
	return tm.issue(models.TokenTypeSession, userID, email, tm.sessionTokenExpiry)
}

// IssuePending creates a short-lived token scoped to the second-factor
// challenge. It is insufficient for any protected route.
func (tm *TokenManager) IssuePending(userID, email string) (string, error) {
	return tm.issue(models.TokenTypeMFAPending, userID, email, tm.pendingTokenExpiry)
}

func (tm *TokenManager) issue(tokenType, userID, email string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Type:   tokenType,
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// Verify parses and validates a token and returns its claims.
func (tm *TokenManager) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeSession && claims.Type != models.TokenTypeMFAPending {
		return nil, fmt.Errorf("%w: unknown token type %q", ErrTokenMalformed, claims.Type)
	}

	return claims, nil
}
