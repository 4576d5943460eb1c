// Package handlers exposes the AnoNote REST endpoints: sessions, profiles,
// the anonymous inbox, the global chat (with a live stream) and the Q&A
// board.
//
// Handlers are transport-thin: they bind and validate input, resolve the
// caller through the session middleware, call application services and
// translate results (and errors) into HTTP responses.
package handlers

import (
	"context"
	"io"
	"time"

	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/feed"
)

//
// Service contracts (context-aware)
//

// ProfileService manages user profiles.
type ProfileService interface {
	CreateAnonymous(ctx context.Context) (*domain.User, error)
	CreateOrUpdate(ctx context.Context, uid, username string, picture *string) (*domain.User, error)
	Get(ctx context.Context, uid string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UploadProfilePicture(ctx context.Context, uid string, r io.Reader) (string, error)
}

// MessageService is the anonymous inbox.
type MessageService interface {
	Send(ctx context.Context, recipientID, text string, note *string) (*domain.Message, error)
	List(ctx context.Context, recipientID string, limit int) ([]domain.Message, error)
	Get(ctx context.Context, recipientID, messageID string) (*domain.Message, error)
	Delete(ctx context.Context, recipientID, messageID string) error
	MarkRead(ctx context.Context, recipientID, messageID string) error
	Stats(ctx context.Context, recipientID string) (count, lastChange int64, err error)
}

// ChatService is the global chat.
type ChatService interface {
	Post(ctx context.Context, userID, content string) (*domain.ChatMessage, error)
	Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	Stats(ctx context.Context) (count, lastChange int64, err error)
}

// QuestionService is the Q&A board.
type QuestionService interface {
	Ask(ctx context.Context, userID, content string) (*domain.Question, error)
	List(ctx context.Context, limit int) ([]domain.Question, error)
	Get(ctx context.Context, id string) (*domain.Question, error)
	Reply(ctx context.Context, questionID, content, username string) (*domain.QuestionReply, error)
	GetReply(ctx context.Context, questionID, replyID string) (*domain.QuestionReply, error)
	Replies(ctx context.Context, questionID string) ([]domain.QuestionReply, error)
	Stats(ctx context.Context) (count, lastChange int64, err error)
}

// SessionIssuer signs session cookie values. auth.SessionCodec implements it.
type SessionIssuer interface {
	Issue(uid, flow string, ttl time.Duration) (token string, expires time.Time, err error)
}

// IdempotencyRecorder stores the resource created for a (scope, key).
type IdempotencyRecorder interface {
	CreateIdempotency(ctx context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// FeedSubscriber delivers live events. feed.Broker implements it.
type FeedSubscriber interface {
	Subscribe(ctx context.Context, topic string) <-chan feed.Event
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Secure    bool
	AnonTTL   time.Duration
	SigninTTL time.Duration
}

//
// Handler wiring
//

// Deps collects everything Handlers needs. Verifier, Idempotency and Feed
// are optional.
type Deps struct {
	Profiles  ProfileService
	Messages  MessageService
	Chat      ChatService
	Questions QuestionService

	Sessions SessionIssuer
	Verifier auth.Verifier
	Cookie   CookieOptions

	Idempotency    IdempotencyRecorder
	IdempotencyTTL time.Duration

	Feed      FeedSubscriber
	Heartbeat time.Duration
}

// Handlers groups every HTTP endpoint.
type Handlers struct {
	profiles  ProfileService
	messages  MessageService
	chat      ChatService
	questions QuestionService

	sessions SessionIssuer
	verifier auth.Verifier
	cookie   CookieOptions

	idem    IdempotencyRecorder
	idemTTL time.Duration

	feed      FeedSubscriber
	heartbeat time.Duration
}

// New constructs Handlers from d, filling defaults for optional settings.
func New(d Deps) *Handlers {
	h := &Handlers{
		profiles:  d.Profiles,
		messages:  d.Messages,
		chat:      d.Chat,
		questions: d.Questions,
		sessions:  d.Sessions,
		verifier:  d.Verifier,
		cookie:    d.Cookie,
		idem:      d.Idempotency,
		idemTTL:   d.IdempotencyTTL,
		feed:      d.Feed,
		heartbeat: d.Heartbeat,
	}
	if h.verifier == nil {
		h.verifier = auth.DisabledVerifier{}
	}
	if h.cookie.AnonTTL <= 0 {
		h.cookie.AnonTTL = 365 * 24 * time.Hour
	}
	if h.cookie.SigninTTL <= 0 {
		h.cookie.SigninTTL = 7 * 24 * time.Hour
	}
	if h.idemTTL <= 0 {
		h.idemTTL = 24 * time.Hour
	}
	if h.heartbeat <= 0 {
		h.heartbeat = 25 * time.Second
	}
	return h
}
