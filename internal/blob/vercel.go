package blob

import (
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

const vercelAPIVersion = "7"

// VercelStore uploads objects with the Vercel Blob "put" endpoint.
type VercelStore struct {
	APIURL string
	Token  string
	Client *http.Client
}

// NewVercelStore returns a store with an HTTP client bounded by timeout.
func NewVercelStore(apiURL, token string, timeout time.Duration) *VercelStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VercelStore{
		APIURL: strings.TrimRight(apiURL, "/"),
		Token:  token,
		Client: &http.Client{Timeout: timeout},
	}
}

type vercelPutResponse struct {
	URL string `json:"url"`
}

// Put sends PUT {APIURL}/{key} and returns the "url" of the reply.
func (s *VercelStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.Token == "" {
		return "", errors.New("blob token not configured")
	}

	endpoint := s.APIURL + "/" + (&url.URL{Path: key}).EscapedPath()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("x-api-version", vercelAPIVersion)
	req.Header.Set("x-add-random-suffix", "0")
	if contentType != "" {
		req.Header.Set("x-content-type", contentType)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("blob upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out vercelPutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("blob upload: decode: %w", err)
	}
	if out.URL == "" {
		return "", errors.New("blob upload: empty url in response")
	}
	return out.URL, nil
}
