package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/repo"
)

// GetUser fetches a profile by uid.
func (s *Store) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	var u domain.User
	if err := s.users.FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// GetUserByUsername fetches a profile by exact handle.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// CreateAnonymousUser inserts a username-less stub unless uid already exists.
func (s *Store) CreateAnonymousUser(ctx context.Context, uid string, now int64) (*domain.User, error) {
	update := bson.M{"$setOnInsert": bson.M{"created_at": now, "updated_at": now}}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": uid}, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return nil, mapErr(err)
	}
	return s.GetUser(ctx, uid)
}

// UpsertUser merge-writes username and, when non-nil, the picture. created_at
// is written only on insert.
func (s *Store) UpsertUser(ctx context.Context, uid, username string, picture *string, now int64) (*domain.User, error) {
	set := bson.M{"username": username, "updated_at": now}
	if picture != nil {
		set["profile_picture"] = *picture
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": uid}, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return nil, mapErr(err)
	}
	return s.GetUser(ctx, uid)
}

// SetProfilePicture updates the avatar URL of an existing profile.
func (s *Store) SetProfilePicture(ctx context.Context, uid, url string, now int64) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": uid},
		bson.M{"$set": bson.M{"profile_picture": url, "updated_at": now}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
