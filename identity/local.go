package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chat-live/domain"
	apperrors "chat-live/errors"
)

// LocalResolver validates HS256 session tokens against a shared secret,
// for development and tests where the external identity service is not
// running. The token subject carries the identity.
type LocalResolver struct {
	secret []byte
}

func NewLocalResolver(secret string) (*LocalResolver, error) {
	if secret == "" {
		return nil, fmt.Errorf("local auth secret must not be empty")
	}
	return &LocalResolver{secret: []byte(secret)}, nil
}

func (r *LocalResolver) Resolve(_ context.Context, sessionToken string) (domain.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(sessionToken, claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", apperrors.ErrMalformedIdentity
	}
	return domain.Identity(claims.Subject), nil
}

// MintToken creates a signed session token for the given identity. Used by
// the tester CLI and the test suites; the server side only ever validates.
func MintToken(secret string, id domain.Identity, ttl time.Duration) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   string(id),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "chat-live",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
