package docstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/repo"
)

// CreateChatMessage appends a post to the global chat.
func (s *Store) CreateChatMessage(ctx context.Context, userID, username string, picture *string, content string, ts int64) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		Username:       username,
		ProfilePicture: picture,
		Content:        content,
		Timestamp:      ts,
	}
	if _, err := s.chat.InsertOne(ctx, m); err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

// ListRecentChatMessages returns the newest limit posts, newest first.
func (s *Store) ListRecentChatMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.chat.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	out := []domain.ChatMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChatStats returns the number of posts and the newest timestamp.
func (s *Store) ChatStats(ctx context.Context) (int64, int64, error) {
	return latest(ctx, s.chat, bson.M{}, "timestamp")
}

// CreateQuestion inserts a question with a zero reply count.
func (s *Store) CreateQuestion(ctx context.Context, userID, username string, picture *string, content string, ts int64) (*domain.Question, error) {
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
	if _, err := s.questions.InsertOne(ctx, q); err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}

// ListQuestions returns up to limit questions, newest first.
func (s *Store) ListQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.questions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	out := []domain.Question{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetQuestion fetches a question by ID.
func (s *Store) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	var q domain.Question
	if err := s.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return nil, mapErr(err)
	}
	return &q, nil
}

// AddReply increments the question's reply_count with $inc and then inserts
// the reply. If the insert fails the increment is undone, so the counter
// only ever reflects stored replies.
func (s *Store) AddReply(ctx context.Context, questionID, username, content string, ts int64) (*domain.QuestionReply, error) {
	res, err := s.questions.UpdateOne(ctx,
		bson.M{"_id": questionID},
		bson.M{"$inc": bson.M{"reply_count": 1}, "$set": bson.M{"updated_at": ts}})
	if err != nil {
		return nil, mapErr(err)
	}
	if res.MatchedCount == 0 {
		return nil, repo.ErrNotFound
	}

	r := &domain.QuestionReply{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		Username:   username,
		Content:    content,
		Timestamp:  ts,
	}
	if _, err := s.replies.InsertOne(ctx, r); err != nil {
		// Use a fresh context: the request context may be what failed.
		if _, uerr := s.questions.UpdateOne(context.WithoutCancel(ctx),
			bson.M{"_id": questionID},
			bson.M{"$inc": bson.M{"reply_count": -1}}); uerr != nil {
			log.Error().Err(uerr).Str("question_id", questionID).Msg("reply_count compensation failed")
		}
		return nil, mapErr(err)
	}
	return r, nil
}

// GetReply fetches one reply of questionID.
func (s *Store) GetReply(ctx context.Context, questionID, id string) (*domain.QuestionReply, error) {
	var r domain.QuestionReply
	if err := s.replies.FindOne(ctx, bson.M{"_id": id, "question_id": questionID}).Decode(&r); err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

// ListReplies returns every reply for questionID, oldest first.
func (s *Store) ListReplies(ctx context.Context, questionID string) ([]domain.QuestionReply, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.replies.Find(ctx, bson.M{"question_id": questionID}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	out := []domain.QuestionReply{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// QuestionsStats returns the number of questions and the latest updated_at.
func (s *Store) QuestionsStats(ctx context.Context) (int64, int64, error) {
	return latest(ctx, s.questions, bson.M{}, "updated_at")
}
