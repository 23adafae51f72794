package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/models"
	"github.com/averlow/otpgate/internal/services"
)

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	SignupFunc  func(ctx context.Context, email, name, password string) (*models.User, error)
	LoginFunc   func(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetUserFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *MockAccountService) Signup(ctx context.Context, email, name, password string) (*models.User, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, email, name, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

// MockMFAService implements MFAServiceInterface for testing
type MockMFAService struct {
	BeginSetupFunc  func(ctx context.Context, userID string) (*services.SetupInfo, error)
	EnableFunc      func(ctx context.Context, userID, code string) error
	VerifyLoginFunc func(ctx context.Context, userID, code string) (string, error)
	DisableFunc     func(ctx context.Context, userID, code string) error
}

func (m *MockMFAService) BeginSetup(ctx context.Context, userID string) (*services.SetupInfo, error) {
	if m.BeginSetupFunc != nil {
		return m.BeginSetupFunc(ctx, userID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMFAService) Enable(ctx context.Context, userID, code string) error {
	if m.EnableFunc != nil {
		return m.EnableFunc(ctx, userID, code)
	}
	return models.ErrInternalServer
}

func (m *MockMFAService) VerifyLogin(ctx context.Context, userID, code string) (string, error) {
	if m.VerifyLoginFunc != nil {
		return m.VerifyLoginFunc(ctx, userID, code)
	}
	return "", models.ErrInternalServer
}

func (m *MockMFAService) Disable(ctx context.Context, userID, code string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, userID, code)
	}
	return models.ErrInternalServer
}

func newTestRenderer() *Renderer {
	return NewRenderer(slog.Default())
}

func testCookieConfig() auth.CookieConfig {
	return auth.CookieConfig{Secure: false}
}

const (
	testSessionExpiry = 30 * time.Minute
	testPendingExpiry = 5 * time.Minute
)

// withClaims simulates the auth middleware by injecting token claims into
// the request context.
func withClaims(req *http.Request, tokenType string) *http.Request {
	claims := &models.TokenClaims{
		Type:   tokenType,
		UserID: "user123",
		Email:  "a@x.com",
	}
	return req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, claims))
}

// findCookie returns the named cookie from a recorded response, or nil.
func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
