package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidToken means the identity provider rejected the token.
	ErrInvalidToken = errors.New("invalid identity token")

	// ErrVerifierDisabled means no identity provider is configured.
	ErrVerifierDisabled = errors.New("identity verification not configured")
)

// Identity is what a verified token asserts.
type Identity struct {
	UID   string
	Email string
}

// Verifier checks an identity-provider token.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// DisabledVerifier rejects every call with ErrVerifierDisabled.
type DisabledVerifier struct{}

func (DisabledVerifier) Verify(context.Context, string) (Identity, error) {
	return Identity{}, ErrVerifierDisabled
}

// IdentityToolkitVerifier resolves tokens with the provider's server-side
// accounts:lookup endpoint.
type IdentityToolkitVerifier struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewIdentityToolkitVerifier returns a verifier whose HTTP calls are bounded
// by timeout.
func NewIdentityToolkitVerifier(endpoint, apiKey string, timeout time.Duration) *IdentityToolkitVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IdentityToolkitVerifier{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// Verify returns ErrInvalidToken for a blank token or a 4xx answer. Transport
// errors and 5xx answers are returned as-is.
func (v *IdentityToolkitVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Identity{}, ErrInvalidToken
	}

	endpoint := v.Endpoint
	if v.APIKey != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return Identity{}, err
		}
		q := u.Query()
		q.Set("key", v.APIKey)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	body, _ := json.Marshal(lookupRequest{IDToken: idToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Identity{}, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return Identity{}, fmt.Errorf("identity lookup: status %d", resp.StatusCode)
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Identity{}, fmt.Errorf("identity lookup: decode: %w", err)
	}
	if len(out.Users) == 0 || out.Users[0].LocalID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UID: out.Users[0].LocalID, Email: out.Users[0].Email}, nil
}
