// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Profile writes are merge writes: the uid row is inserted when missing and
// updated in place otherwise, so created_at survives every later write.
// Username uniqueness is enforced by the ux_users_username index; a
// violation surfaces as ErrDuplicate.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/anonote-backend/internal/domain"
)

// GetUser fetches a profile by uid, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, uid string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a profile by exact (case-sensitive) handle.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateAnonymousUser inserts a stub profile with no username. Calling it for
// an existing uid is a no-op that returns the stored row.
func CreateAnonymousUser(ctx context.Context, db *gorm.DB, uid string, now int64) (*domain.User, error) {
	u := &domain.User{UID: uid, CreatedAt: now, UpdatedAt: now}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "uid"}}, DoNothing: true}).
		Create(u).Error
	if err != nil {
		return nil, err
	}
	return GetUser(ctx, db, uid)
}

// UpsertUser merge-writes username (and the picture, when non-nil) for uid.
// created_at is set only when the row is first inserted. Returns ErrDuplicate
// when the username belongs to another uid.
func UpsertUser(ctx context.Context, db *gorm.DB, uid, username string, picture *string, now int64) (*domain.User, error) {
	name := username
	u := &domain.User{
		UID:            uid,
		Username:       &name,
		ProfilePicture: picture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	cols := []string{"username", "updated_at"}
	if picture != nil {
		cols = append(cols, "profile_picture")
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(u).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return GetUser(ctx, db, uid)
}

// SetProfilePicture stores url on an existing profile, or returns ErrNotFound.
func SetProfilePicture(ctx context.Context, db *gorm.DB, uid, url string, now int64) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("uid = ?", uid).
		Updates(map[string]any{"profile_picture": url, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
