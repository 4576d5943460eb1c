package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/anonote-backend/internal/domain"
)

func TestStore_DelegatesToDB(t *testing.T) {
	db := newRepoDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewStore(db)
	ctx := context.Background()

	if _, err := s.CreateAnonymousUser(ctx, "u1", 1); err != nil {
		t.Fatalf("anon: %v", err)
	}
	if _, err := s.UpsertUser(ctx, "u1", "alice", nil, 2); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.CreateAnonymousUser(ctx, "u2", 3); err != nil {
		t.Fatalf("anon 2: %v", err)
	}
	if _, err := s.UpsertUser(ctx, "u2", "alice", nil, 4); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}

	m, err := s.CreateMessage(ctx, "u1", "hi", nil, 5)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if err := s.MarkMessageRead(ctx, "u1", m.ID, 6); err != nil {
		t.Fatalf("read: %v", err)
	}
	count, last, err := s.MessagesStats(ctx, "u1")
	if err != nil || count != 1 || last != 6 {
		t.Fatalf("stats: count=%d last=%d err=%v", count, last, err)
	}

	q, err := s.CreateQuestion(ctx, "u1", "alice", nil, "why?", 7)
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	r, err := s.AddReply(ctx, q.ID, domain.DefaultUsername, "because", 8)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	got, err := s.GetReply(ctx, q.ID, r.ID)
	if err != nil || got.Content != "because" {
		t.Fatalf("get reply: %+v %v", got, err)
	}

	if _, err := s.CreateIdempotency(ctx, "replies:"+q.ID, "k1", r.ID, 201, time.Hour); err != nil {
		t.Fatalf("idem: %v", err)
	}
	rec, err := s.GetIdempotency(ctx, "replies:"+q.ID, "k1", time.Now())
	if err != nil || rec.ResourceID != r.ID {
		t.Fatalf("idem lookup: %+v %v", rec, err)
	}
}
