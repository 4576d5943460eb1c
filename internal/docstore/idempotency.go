package docstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/repo"
)

// GetIdempotency returns a non-expired record or repo.ErrNotFound. Expired
// documents are also reaped by the TTL index, but the monitor runs only once
// a minute, so expiry is checked here as well.
func (s *Store) GetIdempotency(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return nil, repo.ErrNotFound
	}
	var rec domain.Idempotency
	filter := bson.M{"scope": scope, "key": key, "expires_at": bson.M{"$gt": now}}
	if err := s.idempotency.FindOne(ctx, filter).Decode(&rec); err != nil {
		return nil, mapErr(err)
	}
	return &rec, nil
}

// CreateIdempotency inserts a record; a concurrent duplicate yields repo.ErrDuplicate.
func (s *Store) CreateIdempotency(ctx context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if _, err := s.idempotency.InsertOne(ctx, rec); err != nil {
		return nil, mapErr(err)
	}
	return rec, nil
}
