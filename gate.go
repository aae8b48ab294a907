package folio

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Gate holds the single shared admin credential and issues capability
// tokens on successful verification. Both secrets are injected at
// construction; the gate never reads ambient process state, so the
// missing-secret failure mode is testable without touching the
// environment.
type Gate struct {
	password    []byte
	tokenSecret []byte
	ttl         time.Duration
	now         func() time.Time
}

// NewGate fails closed: an empty password or token secret is a
// configuration error, never a fallback to a default.
func NewGate(password, tokenSecret string, ttl time.Duration) (*Gate, error) {
	if password == "" || tokenSecret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Gate{
		password:    []byte(password),
		tokenSecret: []byte(tokenSecret),
		ttl:         ttl,
		now:         time.Now,
	}, nil
}

// Verify compares the candidate against the configured password in
// constant time. Exact match only.
func (g *Gate) Verify(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), g.password) == 1
}

// IssueToken signs a short-lived capability token. Write operations
// require either this token or an admin session; a client-side flag is
// never trusted.
func (g *Gate) IssueToken() (string, error) {
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("folio: sign token: %w", err)
	}
	return signed, nil
}

// CheckToken validates a capability token. Any parse failure, a wrong
// signing method, an expired token, or a foreign subject all map to
// ErrUnauthorized.
func (g *Gate) CheckToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.tokenSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return g.now() }))
	if err != nil || !token.Valid {
		return ErrUnauthorized
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub != "admin" {
		return ErrUnauthorized
	}
	return nil
}
