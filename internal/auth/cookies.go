package auth

import (
	"net/http"
	"time"
)

// Cookie names for the two token kinds. Both are httpOnly: the browser
// carries them, scripts never see them.
const (
	SessionCookieName = "session_token"
	PendingCookieName = "mfa_pending_token"
)

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Secure bool // HTTPS only
}

// SetSessionCookie sets the full session token in an httpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration, config CookieConfig) {
	setTokenCookie(w, SessionCookieName, token, maxAge, config)
}

// SetPendingCookie sets the pending-MFA token in an httpOnly cookie.
func SetPendingCookie(w http.ResponseWriter, token string, maxAge time.Duration, config CookieConfig) {
	setTokenCookie(w, PendingCookieName, token, maxAge, config)
}

func setTokenCookie(w http.ResponseWriter, name, token string, maxAge time.Duration, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(maxAge),
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie deletes the session cookie. With stateless tokens this
// is the whole logout: the server has nothing to revoke.
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	clearTokenCookie(w, SessionCookieName, config)
}

// ClearPendingCookie deletes the pending-MFA cookie.
func ClearPendingCookie(w http.ResponseWriter, config CookieConfig) {
	clearTokenCookie(w, PendingCookieName, config)
}

func clearTokenCookie(w http.ResponseWriter, name string, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // Negative MaxAge deletes the cookie
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionCookie retrieves the session token from the request.
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetPendingCookie retrieves the pending-MFA token from the request.
func GetPendingCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(PendingCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
