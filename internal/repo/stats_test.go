package repo

import (
	"context"
	"testing"

	"github.com/tbourn/anonote-backend/internal/domain"
)

func TestMessagesStats_CountError_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, _, err := MessagesStats(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestMessagesStats_ZeroAndFilteredMax(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.Message{})
	ctx := context.Background()

	count, last, err := MessagesStats(ctx, db, "u1")
	if err != nil || count != 0 || last != 0 {
		t.Fatalf("empty inbox: count=%d last=%d err=%v", count, last, err)
	}

	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	_, _ = CreateMessage(ctx, db, "u1", "a", nil, 10)
	m, _ := CreateMessage(ctx, db, "u1", "b", nil, 20)
	_, _ = CreateMessage(ctx, db, "u2", "c", nil, 999)

	count, last, err = MessagesStats(ctx, db, "u1")
	if err != nil || count != 2 || last != 20 {
		t.Fatalf("got count=%d last=%d err=%v", count, last, err)
	}

	// Marking read changes the fingerprint.
	if err := MarkMessageRead(ctx, db, "u1", m.ID, 30); err != nil {
		t.Fatalf("mark: %v", err)
	}
	_, last, _ = MessagesStats(ctx, db, "u1")
	if last != 30 {
		t.Fatalf("expected last change 30, got %d", last)
	}
}

func TestChatStats(t *testing.T) {
	db := newRepoDB(t, &domain.ChatMessage{})
	ctx := context.Background()
	_, _ = CreateChatMessage(ctx, db, "u", "n", nil, "x", 5)
	_, _ = CreateChatMessage(ctx, db, "u", "n", nil, "y", 9)

	count, last, err := ChatStats(ctx, db)
	if err != nil || count != 2 || last != 9 {
		t.Fatalf("got count=%d last=%d err=%v", count, last, err)
	}
}

func TestQuestionsStats_ReplyBumpsLastChange(t *testing.T) {
	db := newRepoDB(t, &domain.Question{}, &domain.QuestionReply{})
	ctx := context.Background()
	q, _ := CreateQuestion(ctx, db, "u", "n", nil, "q", 5)

	_, last, _ := QuestionsStats(ctx, db)
	if last != 5 {
		t.Fatalf("expected 5, got %d", last)
	}
	if _, err := AddReply(ctx, db, q.ID, "x", "r", 50); err != nil {
		t.Fatalf("reply: %v", err)
	}
	count, last, err := QuestionsStats(ctx, db)
	if err != nil || count != 1 || last != 50 {
		t.Fatalf("got count=%d last=%d err=%v", count, last, err)
	}
}
