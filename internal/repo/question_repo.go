// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Q&A board.
//
// Error semantics:
//   - A missing question yields gorm.ErrRecordNotFound (ErrNotFound).
//   - AddReply bumps reply_count and inserts the reply inside one
//     transaction; the increment is a single UPDATE expression, so
//     concurrent replies never lose a count.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/anonote-backend/internal/domain"
)

// CreateQuestion inserts a question with a zero reply count.
func CreateQuestion(ctx context.Context, db *gorm.DB, userID, username string, picture *string, content string, ts int64) (*domain.Question, error) {
	q := &domain.Question{
		ID:             uuid.NewString(),
		UserID:         userID,
		Username:       username,
		ProfilePicture: picture,
		Content:        content,
		Timestamp:      ts,
		ReplyCount:     0,
		UpdatedAt:      ts,
	}
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuestions returns up to limit questions, newest first.
func ListQuestions(ctx context.Context, db *gorm.DB, limit int) ([]domain.Question, error) {
	out := []domain.Question{}
	q := db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetQuestion fetches a question by ID.
func GetQuestion(ctx context.Context, db *gorm.DB, id string) (*domain.Question, error) {
	var q domain.Question
	if err := db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// AddReply atomically increments the question's reply_count and inserts the
// reply. It returns ErrNotFound (and writes nothing) if the question is gone.
func AddReply(ctx context.Context, db *gorm.DB, questionID, username, content string, ts int64) (*domain.QuestionReply, error) {
	r := &domain.QuestionReply{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		Username:   username,
		Content:    content,
		Timestamp:  ts,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Question{}).
			Where("id = ?", questionID).
			Updates(map[string]any{
				"reply_count": gorm.Expr("reply_count + ?", 1),
				"updated_at":  ts,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Omit("Question").Create(r).Error
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReplies returns every reply for questionID, oldest first
// (Timestamp ASC, ID ASC).
func ListReplies(ctx context.Context, db *gorm.DB, questionID string) ([]domain.QuestionReply, error) {
	out := []domain.QuestionReply{}
	err := db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("timestamp ASC, id ASC").
		Find(&out).Error
	return out, err
}

// GetReply fetches one reply of questionID.
func GetReply(ctx context.Context, db *gorm.DB, questionID, id string) (*domain.QuestionReply, error) {
	var r domain.QuestionReply
	if err := db.WithContext(ctx).
		Where("question_id = ? AND id = ?", questionID, id).
		First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}
