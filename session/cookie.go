// sqadmin/session/cookie.go
package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName carries the signed session reference in the browser.
const CookieName = "sq_session"

// CookieCodec signs and verifies the session cookie. The cookie holds only
// the session ID; the bearer token never leaves the server.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewCookieCodec builds a codec over an HMAC secret.
func NewCookieCodec(secret []byte, ttl time.Duration) *CookieCodec {
	return &CookieCodec{secret: secret, ttl: ttl}
}

// Issue builds the Set-Cookie for a session.
func (c *CookieCodec) Issue(sess *Session) (*http.Cookie, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sess.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode verifies a cookie value and returns the session ID it names.
func (c *CookieCodec) Decode(value string) (string, bool) {
	token, err := jwt.ParseWithClaims(value, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// Clear builds the cookie that removes the session reference.
func (c *CookieCodec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
