// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/anonote-backend/internal/domain"
)

// MessagesStats returns the number of messages in recipientID's inbox and the
// greatest updated_at (epoch ms) among them. Both are zero for an empty inbox.
func MessagesStats(ctx context.Context, db *gorm.DB, recipientID string) (count int64, lastChange int64, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("recipient_id = ?", recipientID)
	return countAndLatest(q, "updated_at")
}

// ChatStats returns the number of global chat posts and the newest timestamp.
func ChatStats(ctx context.Context, db *gorm.DB) (count int64, lastChange int64, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatMessage{})
	return countAndLatest(q, "timestamp")
}

// QuestionsStats returns the number of questions and the greatest updated_at.
// A new reply bumps its question's updated_at, so reply counts are covered.
func QuestionsStats(ctx context.Context, db *gorm.DB) (count int64, lastChange int64, err error) {
	q := db.WithContext(ctx).Model(&domain.Question{})
	return countAndLatest(q, "updated_at")
}

func countAndLatest(q *gorm.DB, col string) (int64, int64, error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	var latest int64
	if err := q.Session(&gorm.Session{}).Select("COALESCE(MAX(" + col + "), 0)").Row().Scan(&latest); err != nil {
		return 0, 0, err
	}
	return count, latest, nil
}
