// Package auth resolves caller identity: it mints anonymous user ids, issues
// and parses the session cookie token, and verifies identity-provider tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie. The name is kept from the browser client,
// which reads it to decide whether a session exists.
const CookieName = "userId"

// ErrInvalidSession is returned for tokens that fail signature, issuer or
// expiry checks.
var ErrInvalidSession = errors.New("invalid session")

// SessionClaims is the payload of a session token. Subject is the uid.
type SessionClaims struct {
	Flow string `json:"flow,omitempty"`
	jwt.RegisteredClaims
}

// SessionCodec signs and validates HS256 session tokens.
type SessionCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewSessionCodec returns a codec for secret. An empty secret is rejected.
func NewSessionCodec(secret, issuer string) (*SessionCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is empty")
	}
	return &SessionCodec{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue returns a signed token for uid valid for ttl, and its expiry.
func (c *SessionCodec) Issue(uid, flow string, ttl time.Duration) (string, time.Time, error) {
	if uid == "" {
		return "", time.Time{}, errors.New("empty uid")
	}
	now := c.now()
	exp := now.Add(ttl)
	claims := &SessionClaims{
		Flow: flow,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse validates token and returns the uid it was issued for.
func (c *SessionCodec) Parse(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}
	claims := &SessionClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}
