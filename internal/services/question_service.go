// Package services – QuestionService
//
// QuestionService runs the public Q&A board. Signed-in users post questions;
// anyone may reply, anonymously by default. Each question's replyCount is
// kept equal to its number of replies by the store, which increments the
// counter atomically with the reply insert.
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
	"github.com/tbourn/anonote-backend/internal/feed"
	"github.com/tbourn/anonote-backend/internal/observability"
	"github.com/tbourn/anonote-backend/internal/repo"
	"github.com/tbourn/anonote-backend/internal/sanitize"
	"github.com/tbourn/anonote-backend/internal/utils"
)

// MaxQuestions is the number of questions returned by List.
const MaxQuestions = 50

// QuestionService provides the Q&A board.
type QuestionService struct {
	Questions QuestionRepo
	Users     UserLookup
	Feed      Publisher

	MaxContentRunes int
	Now             func() time.Time
}

// NewQuestionService constructs a QuestionService. pub may be nil.
func NewQuestionService(questions QuestionRepo, users UserLookup, pub Publisher) *QuestionService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &QuestionService{
		Questions:       questions,
		Users:           users,
		Feed:            pub,
		MaxContentRunes: DefaultMaxContentRunes,
		Now:             time.Now,
	}
}

// Ask posts a question as userID with a zero reply count.
func (s *QuestionService) Ask(ctx context.Context, userID, content string) (*domain.Question, error) {
	tr := otel.Tracer("services/QuestionService")
	ctx, span := tr.Start(ctx, "Ask",
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

	q, err := s.Questions.CreateQuestion(ctx, userID, name, picture, text, nowMillis(s.Now))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.QuestionsAsked.Inc()
	s.publish("question.created", q)
	return q, nil
}

// QuestionLimit is the page size List uses for a requested limit.
func QuestionLimit(n int) int { return utils.ClampLimit(n, MaxQuestions, MaxQuestions) }

// List returns up to limit (max MaxQuestions) questions, newest first.
func (s *QuestionService) List(ctx context.Context, limit int) ([]domain.Question, error) {
	tr := otel.Tracer("services/QuestionService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	return s.Questions.ListQuestions(ctx, QuestionLimit(limit))
}

// Get returns one question or ErrQuestionNotFound.
func (s *QuestionService) Get(ctx context.Context, id string) (*domain.Question, error) {
	q, err := s.Questions.GetQuestion(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	return q, err
}

// Reply adds an answer to questionID. A blank username is stored as
// domain.DefaultUsername.
func (s *QuestionService) Reply(ctx context.Context, questionID, content, username string) (*domain.QuestionReply, error) {
	tr := otel.Tracer("services/QuestionService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(attribute.String("question.id", questionID)),
	)
	defer span.End()

	text, err := cleanText(content, s.MaxContentRunes)
	if err != nil {
		return nil, err
	}
	name := replyName(username)
	if strings.TrimSpace(questionID) == "" {
		return nil, ErrQuestionNotFound
	}

	r, err := s.Questions.AddReply(ctx, questionID, name, text, nowMillis(s.Now))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	observability.RepliesPosted.Inc()
	s.publish("reply.created", r)
	return r, nil
}

// GetReply returns one reply of questionID or ErrReplyNotFound.
func (s *QuestionService) GetReply(ctx context.Context, questionID, replyID string) (*domain.QuestionReply, error) {
	r, err := s.Questions.GetReply(ctx, questionID, replyID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrReplyNotFound
	}
	return r, err
}

// Replies returns every reply of questionID, oldest first.
func (s *QuestionService) Replies(ctx context.Context, questionID string) ([]domain.QuestionReply, error) {
	tr := otel.Tracer("services/QuestionService")
	ctx, span := tr.Start(ctx, "Replies",
		trace.WithAttributes(attribute.String("question.id", questionID)),
	)
	defer span.End()

	if _, err := s.Get(ctx, questionID); err != nil {
		return nil, err
	}
	return s.Questions.ListReplies(ctx, questionID)
}

// Stats returns the question count and last change, for ETags.
func (s *QuestionService) Stats(ctx context.Context) (int64, int64, error) {
	return s.Questions.QuestionsStats(ctx)
}

func (s *QuestionService) publish(typ string, data any) {
	if s.Feed != nil {
		s.Feed.Publish(feed.TopicQuestions, typ, data)
	}
}

// replyName sanitizes a free-form reply signature and clips it to the
// handle length. Anything blank becomes domain.DefaultUsername.
func replyName(username string) string {
	name := sanitize.Text(username)
	if name == "" {
		return domain.DefaultUsername
	}
	if r := []rune(name); len(r) > 20 {
		name = strings.TrimSpace(string(r[:20]))
	}
	return name
}
