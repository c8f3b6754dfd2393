package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-live/domain"
	apperrors "chat-live/errors"
)

const testSecret = "a_long_enough_secret_for_tests"

func TestLocalResolver_Round_Trip(t *testing.T) {
	req := require.New(t)
	resolver, err := NewLocalResolver(testSecret)
	req.NoError(err)

	token, err := MintToken(testSecret, "a@x.com", time.Minute)
	req.NoError(err)

	id, err := resolver.Resolve(context.Background(), token)
	req.NoError(err)
	req.Equal(domain.Identity("a@x.com"), id)
}

func TestLocalResolver_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	resolver, err := NewLocalResolver(testSecret)
	req.NoError(err)

	token, err := MintToken("another_secret_entirely", "a@x.com", time.Minute)
	req.NoError(err)

	_, err = resolver.Resolve(context.Background(), token)
	req.ErrorIs(err, apperrors.ErrUnauthenticated)
}

func TestLocalResolver_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	resolver, err := NewLocalResolver(testSecret)
	req.NoError(err)

	token, err := MintToken(testSecret, "a@x.com", -time.Minute)
	req.NoError(err)

	_, err = resolver.Resolve(context.Background(), token)
	req.ErrorIs(err, apperrors.ErrUnauthenticated)
}

func TestLocalResolver_Rejects_Missing_Subject(t *testing.T) {
	req := require.New(t)
	resolver, err := NewLocalResolver(testSecret)
	req.NoError(err)

	token, err := MintToken(testSecret, "", time.Minute)
	req.NoError(err)

	_, err = resolver.Resolve(context.Background(), token)
	req.ErrorIs(err, apperrors.ErrMalformedIdentity)
}

func TestNewLocalResolver_Requires_Secret(t *testing.T) {
	req := require.New(t)
	_, err := NewLocalResolver("")
	req.Error(err)
}
