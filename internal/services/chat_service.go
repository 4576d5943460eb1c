// Package services – ChatService
//
// ChatService manages the single global chat room. Posts are append-only and
// carry the author's display name and picture as of the time of writing.
// Successful posts are also published to the live feed.
package services

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/feed"
	"github.com/tbourn/anonote-backend/internal/observability"
	"github.com/tbourn/anonote-backend/internal/utils"
)

// MaxChatHistory is the number of posts returned by Recent.
const MaxChatHistory = 100

// ChatService provides the global chat.
type ChatService struct {
	Chat  ChatRepo
	Users UserLookup
	Feed  Publisher

	MaxContentRunes int
	Now             func() time.Time
}

// NewChatService constructs a ChatService. feed may be nil.
func NewChatService(chat ChatRepo, users UserLookup, pub Publisher) *ChatService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &ChatService{
		Chat:            chat,
		Users:           users,
		Feed:            pub,
		MaxContentRunes: DefaultMaxContentRunes,
		Now:             time.Now,
	}
}

// Post appends content as userID. The author must have a profile.
func (s *ChatService) Post(ctx context.Context, userID, content string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Post",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	text, err := cleanText(content, s.MaxContentRunes)
	if err != nil {
		return nil, err
	}
	name, picture, err := authorOf(ctx, s.Users, userID)
	if err != nil {
		return nil, err
	}

	m, err := s.Chat.CreateChatMessage(ctx, userID, name, picture, text, nowMillis(s.Now))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.ChatPosts.Inc()
	if s.Feed != nil {
		s.Feed.Publish(feed.TopicChat, "chat.created", m)
	}
	return m, nil
}

// ChatLimit is the page size Recent uses for a requested limit.
func ChatLimit(n int) int { return utils.ClampLimit(n, MaxChatHistory, MaxChatHistory) }

// Recent returns up to limit (max MaxChatHistory) posts in chronological
// order, oldest first.
func (s *ChatService) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Recent",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	items, err := s.Chat.ListRecentChatMessages(ctx, ChatLimit(limit))
	if err != nil {
		return nil, err
	}
	return lo.Reverse(items), nil
}

// Stats returns the post count and newest timestamp, for ETags.
func (s *ChatService) Stats(ctx context.Context) (int64, int64, error) {
	return s.Chat.ChatStats(ctx)
}
