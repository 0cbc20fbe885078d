package pressroom

import (
	"errors"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// sessionCookie is the cookie carrying the signed admin session token.
const sessionCookie = "adminSession"

// ErrInvalidSession is returned when a session token fails signature or
// expiry checks. Callers clear the session cookie before surfacing it.
var ErrInvalidSession = errors.New("invalid session token")

// Claims is the decoded payload of an admin session token. Subject holds
// the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies admin session tokens with a shared HS256
// secret. Verification is a pure check: no I/O, no retries.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewSessions validates the secret and returns a configured verifier.
func NewSessions(secret string, ttl time.Duration, secureCookies bool) (*Sessions, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secureCookies}, nil
}

// Issue creates a signed session token for the given user.
func (s *Sessions) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token's signature and expiry and returns its claims.
// Any failure, including a tampered or expired token, yields
// ErrInvalidSession rather than the parser's internal error.
func (s *Sessions) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidSession
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// readSessionToken returns the raw session token from the request cookie,
// or "" when no cookie is present.
func readSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Sessions) setCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	})
}

// clearCookie deletes the session cookie. Handlers call this before
// signaling any session error so a client retry re-enters the sign-in flow.
func (s *Sessions) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	})
}
