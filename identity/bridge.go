// Package identity bridges live connections to the external identity
// service: an opaque session token goes in, a verified identity comes out.
// The package holds no local state and performs no retries; a failed
// resolution fails the connect attempt immediately.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chat-live/domain"
	apperrors "chat-live/errors"
)

const defaultResolveTimeout = 5 * time.Second

// Bridge resolves identities through a single synchronous call to the
// identity service. Safe for concurrent use by many inbound connections.
type Bridge struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewBridge(baseURL string, timeout time.Duration, log *slog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &Bridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
		log:     log,
	}
}

// Resolve exchanges the session token for a verified identity.
// The call is bounded by the configured timeout; expiry maps to
// ErrAuthTimeout, any rejection or transport failure to ErrUnauthenticated,
// and a success response without an identity to ErrMalformedIdentity.
func (b *Bridge) Resolve(ctx context.Context, sessionToken string) (domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/identity", nil)
	if err != nil {
		return "", err
	}
	request.AddCookie(&http.Cookie{Name: "session_id", Value: sessionToken})

	response, err := b.client.Do(request)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.ErrAuthTimeout
		}
		return "", fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		b.log.Debug("Identity service rejected token", "status", response.StatusCode)
		return "", fmt.Errorf("%w: identity service returned %d",
			apperrors.ErrUnauthenticated, response.StatusCode)
	}

	var payload struct {
		Identity string `json:"identity"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrMalformedIdentity, err)
	}
	if payload.Identity == "" {
		return "", apperrors.ErrMalformedIdentity
	}
	return domain.Identity(payload.Identity), nil
}
