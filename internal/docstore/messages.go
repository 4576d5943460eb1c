package docstore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/repo"
)

// CreateMessage inserts an unread message for recipientID.
func (s *Store) CreateMessage(ctx context.Context, recipientID, content string, note *string, ts int64) (*domain.Message, error) {
	m := &domain.Message{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Note:        note,
		Content:     content,
		Timestamp:   ts,
		Read:        false,
		UpdatedAt:   ts,
	}
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

// ListMessages returns up to limit messages for recipientID, newest first.
func (s *Store) ListMessages(ctx context.Context, recipientID string, limit int) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.messages.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	out := []domain.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMessage fetches one message from recipientID's inbox or returns
// repo.ErrNotFound.
func (s *Store) GetMessage(ctx context.Context, recipientID, id string) (*domain.Message, error) {
	var m domain.Message
	err := s.messages.FindOne(ctx, bson.M{"_id": id, "recipient_id": recipientID}).Decode(&m)
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

// DeleteMessage removes the message if it is in recipientID's inbox.
func (s *Store) DeleteMessage(ctx context.Context, recipientID, id string) error {
	_, err := s.messages.DeleteOne(ctx, bson.M{"_id": id, "recipient_id": recipientID})
	return mapErr(err)
}

// MarkMessageRead flips the read flag or returns repo.ErrNotFound.
func (s *Store) MarkMessageRead(ctx context.Context, recipientID, id string, now int64) error {
	res, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"read": true, "updated_at": now}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// MessagesStats returns the inbox size and the latest updated_at.
func (s *Store) MessagesStats(ctx context.Context, recipientID string) (int64, int64, error) {
	return latest(ctx, s.messages, bson.M{"recipient_id": recipientID}, "updated_at")
}
