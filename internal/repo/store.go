// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file binds the package-level functions to a *gorm.DB
// so the SQL backends satisfy the same method set as the document store.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/anonote-backend/internal/domain"
)

// Store exposes every repository function as a method over one database.
type Store struct {
	DB *gorm.DB
}

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	return GetUser(ctx, s.DB, uid)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return GetUserByUsername(ctx, s.DB, username)
}

func (s *Store) CreateAnonymousUser(ctx context.Context, uid string, now int64) (*domain.User, error) {
	return CreateAnonymousUser(ctx, s.DB, uid, now)
}

func (s *Store) UpsertUser(ctx context.Context, uid, username string, picture *string, now int64) (*domain.User, error) {
	return UpsertUser(ctx, s.DB, uid, username, picture, now)
}

func (s *Store) SetProfilePicture(ctx context.Context, uid, url string, now int64) error {
	return SetProfilePicture(ctx, s.DB, uid, url, now)
}

func (s *Store) CreateMessage(ctx context.Context, recipientID, content string, note *string, ts int64) (*domain.Message, error) {
	return CreateMessage(ctx, s.DB, recipientID, content, note, ts)
}

func (s *Store) ListMessages(ctx context.Context, recipientID string, limit int) ([]domain.Message, error) {
	return ListMessages(ctx, s.DB, recipientID, limit)
}

func (s *Store) GetMessage(ctx context.Context, recipientID, id string) (*domain.Message, error) {
	return GetMessage(ctx, s.DB, recipientID, id)
}

func (s *Store) DeleteMessage(ctx context.Context, recipientID, id string) error {
	return DeleteMessage(ctx, s.DB, recipientID, id)
}

func (s *Store) MarkMessageRead(ctx context.Context, recipientID, id string, now int64) error {
	return MarkMessageRead(ctx, s.DB, recipientID, id, now)
}

func (s *Store) MessagesStats(ctx context.Context, recipientID string) (int64, int64, error) {
	return MessagesStats(ctx, s.DB, recipientID)
}

func (s *Store) CreateChatMessage(ctx context.Context, userID, username string, picture *string, content string, ts int64) (*domain.ChatMessage, error) {
	return CreateChatMessage(ctx, s.DB, userID, username, picture, content, ts)
}

func (s *Store) ListRecentChatMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	return ListRecentChatMessages(ctx, s.DB, limit)
}

func (s *Store) ChatStats(ctx context.Context) (int64, int64, error) {
	return ChatStats(ctx, s.DB)
}

func (s *Store) CreateQuestion(ctx context.Context, userID, username string, picture *string, content string, ts int64) (*domain.Question, error) {
	return CreateQuestion(ctx, s.DB, userID, username, picture, content, ts)
}

func (s *Store) ListQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	return ListQuestions(ctx, s.DB, limit)
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	return GetQuestion(ctx, s.DB, id)
}

func (s *Store) AddReply(ctx context.Context, questionID, username, content string, ts int64) (*domain.QuestionReply, error) {
	return AddReply(ctx, s.DB, questionID, username, content, ts)
}

func (s *Store) GetReply(ctx context.Context, questionID, id string) (*domain.QuestionReply, error) {
	return GetReply(ctx, s.DB, questionID, id)
}

func (s *Store) ListReplies(ctx context.Context, questionID string) ([]domain.QuestionReply, error) {
	return ListReplies(ctx, s.DB, questionID)
}

func (s *Store) QuestionsStats(ctx context.Context) (int64, int64, error) {
	return QuestionsStats(ctx, s.DB)
}

func (s *Store) GetIdempotency(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return GetIdempotency(ctx, s.DB, scope, key, now)
}

func (s *Store) CreateIdempotency(ctx context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return CreateIdempotency(ctx, s.DB, scope, key, resourceID, status, ttl)
}
