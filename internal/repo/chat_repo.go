// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the global chat.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition. Author display data is supplied by the
// caller and stored denormalized.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/anonote-backend/internal/domain"
)

// CreateChatMessage appends a post to the global chat.
func CreateChatMessage(ctx context.Context, db *gorm.DB, userID, username string, picture *string, content string, ts int64) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		Username:       username,
		ProfilePicture: picture,
		Content:        content,
		Timestamp:      ts,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListRecentChatMessages returns the newest limit posts, newest first.
// Callers reverse the slice for display.
func ListRecentChatMessages(ctx context.Context, db *gorm.DB, limit int) ([]domain.ChatMessage, error) {
	out := []domain.ChatMessage{}
	q := db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
