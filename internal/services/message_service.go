// Package services – MessageService
//
// MessageService is the anonymous inbox. Anyone may send a note to an
// existing profile; nothing about the sender is recorded. Listing, deleting
// and marking notes read are recipient operations, and the handler layer
// checks the caller's session before calling them.
//
// Observability: every public method opens an OpenTelemetry span carrying
// the recipient id and, where relevant, the limit.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/observability"
	"github.com/tbourn/anonote-backend/internal/repo"
	"github.com/tbourn/anonote-backend/internal/utils"
)

// Inbox listing bounds.
const (
	DefaultInboxLimit = 50
	MaxInboxLimit     = 50
)

// MessageService coordinates the inbox.
type MessageService struct {
	Messages MessageRepo
	Users    UserLookup

	MaxContentRunes int
	MaxNoteRunes    int

	Now func() time.Time
}

// NewMessageService constructs a MessageService with the default limits.
func NewMessageService(messages MessageRepo, users UserLookup) *MessageService {
	return &MessageService{
		Messages:        messages,
		Users:           users,
		MaxContentRunes: DefaultMaxContentRunes,
		MaxNoteRunes:    DefaultMaxNoteRunes,
		Now:             time.Now,
	}
}

// Send validates text, verifies the recipient exists and stores an unread
// note stamped with the current time.
func (s *MessageService) Send(ctx context.Context, recipientID, text string, note *string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(attribute.String("recipient.id", recipientID)),
	)
	defer span.End()

	content, err := cleanText(text, s.MaxContentRunes)
	if err != nil {
		return nil, err
	}
	n, err := cleanNote(note, s.MaxNoteRunes)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRecipient(ctx, recipientID); err != nil {
		return nil, err
	}

	m, err := s.Messages.CreateMessage(ctx, recipientID, content, n, nowMillis(s.Now))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.MessagesSent.Inc()
	return m, nil
}

// List returns the newest notes for recipientID. limit is clamped to
// [1, MaxInboxLimit]; <= 0 selects DefaultInboxLimit.
func (s *MessageService) List(ctx context.Context, recipientID string, limit int) ([]domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("recipient.id", recipientID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	return s.Messages.ListMessages(ctx, recipientID, InboxLimit(limit))
}

// InboxLimit is the page size List uses for a requested limit.
func InboxLimit(n int) int { return utils.ClampLimit(n, DefaultInboxLimit, MaxInboxLimit) }

// Get returns one note from recipientID's inbox or ErrMessageNotFound.
func (s *MessageService) Get(ctx context.Context, recipientID, messageID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("recipient.id", recipientID),
			attribute.String("message.id", messageID),
		),
	)
	defer span.End()

	m, err := s.Messages.GetMessage(ctx, recipientID, messageID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMessageNotFound
	}
	return m, err
}

// Delete removes a note from the inbox. Deleting a missing note succeeds.
func (s *MessageService) Delete(ctx context.Context, recipientID, messageID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("recipient.id", recipientID),
			attribute.String("message.id", messageID),
		),
	)
	defer span.End()

	return s.Messages.DeleteMessage(ctx, recipientID, messageID)
}

// MarkRead flags a note as read or returns ErrMessageNotFound.
func (s *MessageService) MarkRead(ctx context.Context, recipientID, messageID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(
			attribute.String("recipient.id", recipientID),
			attribute.String("message.id", messageID),
		),
	)
	defer span.End()

	err := s.Messages.MarkMessageRead(ctx, recipientID, messageID, nowMillis(s.Now))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMessageNotFound
	}
	return err
}

// Stats returns the inbox size and the last change, for ETags.
func (s *MessageService) Stats(ctx context.Context, recipientID string) (int64, int64, error) {
	return s.Messages.MessagesStats(ctx, recipientID)
}

func (s *MessageService) ensureRecipient(ctx context.Context, recipientID string) error {
	if strings.TrimSpace(recipientID) == "" {
		return ErrUserNotFound
	}
	if _, err := s.Users.GetUser(ctx, recipientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// authorOf resolves display data for userID. Shared by the chat and Q&A
// services.
func authorOf(ctx context.Context, users UserLookup, userID string) (string, *string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", nil, ErrUserNotFound
	}
	u, err := users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	return u.DisplayName(), u.ProfilePicture, nil
}
