// Package blob stores uploaded files and returns their public URL.
//
// Two drivers exist: DiskStore writes under a local directory that the HTTP
// router serves statically, and VercelStore uploads to the Vercel Blob HTTP
// API.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrInvalidKey is returned for empty keys or keys that try to escape the
// store root.
var ErrInvalidKey = errors.New("invalid blob key")

// Store persists an object under key and returns a public URL for it.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// cleanKey validates a slash-separated object key.
func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}
