// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for inbox messages.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/anonote-backend/internal/domain"
)

// CreateMessage inserts an unread message into recipientID's inbox.
func CreateMessage(ctx context.Context, db *gorm.DB, recipientID, content string, note *string, ts int64) (*domain.Message, error) {
	m := &domain.Message{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Note:        note,
		Content:     content,
		Timestamp:   ts,
		Read:        false,
		UpdatedAt:   ts,
	}
	if err := db.WithContext(ctx).Omit("Recipient").Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns up to limit messages for recipientID, newest first
// (Timestamp DESC, ID DESC).
func ListMessages(ctx context.Context, db *gorm.DB, recipientID string, limit int) ([]domain.Message, error) {
	out := []domain.Message{}
	q := db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetMessage fetches a message by ID within recipientID's inbox.
func GetMessage(ctx context.Context, db *gorm.DB, recipientID, id string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessage removes a message from recipientID's inbox. Deleting an
// absent message is not an error.
func DeleteMessage(ctx context.Context, db *gorm.DB, recipientID, id string) error {
	return db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&domain.Message{}).Error
}

// MarkMessageRead flips the read flag. It returns ErrNotFound when the
// message is not in recipientID's inbox.
func MarkMessageRead(ctx context.Context, db *gorm.DB, recipientID, id string, now int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Updates(map[string]any{"read": true, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
