package services

import (
	"context"
	"time"

	"github.com/tbourn/anonote-backend/internal/domain"
)

// The repository contracts below are satisfied by repo.Store (GORM) and by
// docstore.Store (MongoDB). Implementations report a miss with
// repo.ErrNotFound and a unique-index violation with repo.ErrDuplicate.

// UserLookup resolves a profile by uid.
type UserLookup interface {
	GetUser(ctx context.Context, uid string) (*domain.User, error)
}

// UserRepo is the profile store contract.
type UserRepo interface {
	UserLookup
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateAnonymousUser(ctx context.Context, uid string, now int64) (*domain.User, error)
	UpsertUser(ctx context.Context, uid, username string, picture *string, now int64) (*domain.User, error)
	SetProfilePicture(ctx context.Context, uid, url string, now int64) error
}

// MessageRepo is the inbox contract.
type MessageRepo interface {
	CreateMessage(ctx context.Context, recipientID, content string, note *string, ts int64) (*domain.Message, error)
	ListMessages(ctx context.Context, recipientID string, limit int) ([]domain.Message, error)
	GetMessage(ctx context.Context, recipientID, id string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, recipientID, id string) error
	MarkMessageRead(ctx context.Context, recipientID, id string, now int64) error
	MessagesStats(ctx context.Context, recipientID string) (count, lastChange int64, err error)
}

// ChatRepo is the global chat contract.
type ChatRepo interface {
	CreateChatMessage(ctx context.Context, userID, username string, picture *string, content string, ts int64) (*domain.ChatMessage, error)
	ListRecentChatMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	ChatStats(ctx context.Context) (count, lastChange int64, err error)
}

// QuestionRepo is the Q&A board contract.
type QuestionRepo interface {
	CreateQuestion(ctx context.Context, userID, username string, picture *string, content string, ts int64) (*domain.Question, error)
	ListQuestions(ctx context.Context, limit int) ([]domain.Question, error)
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)
	AddReply(ctx context.Context, questionID, username, content string, ts int64) (*domain.QuestionReply, error)
	GetReply(ctx context.Context, questionID, id string) (*domain.QuestionReply, error)
	ListReplies(ctx context.Context, questionID string) ([]domain.QuestionReply, error)
	QuestionsStats(ctx context.Context) (count, lastChange int64, err error)
}

// IdempotencyRepo stores replay records for POST endpoints.
type IdempotencyRepo interface {
	GetIdempotency(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// Stores bundles one backend's implementations of every contract.
type Stores struct {
	Users       UserRepo
	Messages    MessageRepo
	Chat        ChatRepo
	Questions   QuestionRepo
	Idempotency IdempotencyRepo
}

// Publisher receives live events after successful writes. feed.Broker
// implements it.
type Publisher interface {
	Publish(topic, typ string, data any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) {}

// nowMillis returns the epoch-millisecond timestamp of now().
func nowMillis(now func() time.Time) int64 {
	if now == nil {
		return time.Now().UnixMilli()
	}
	return now().UnixMilli()
}
