package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tbourn/anonote-backend/internal/domain"
)

func TestCreateAnonymousUser_IdempotentStub(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateAnonymousUser(ctx, db, "user_1", 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Username != nil || u.CreatedAt != 100 || u.UpdatedAt != 100 {
		t.Fatalf("unexpected stub: %+v", u)
	}

	// Second call keeps the original row.
	again, err := CreateAnonymousUser(ctx, db, "user_1", 999)
	if err != nil {
		t.Fatalf("create again: %v", err)
	}
	if again.CreatedAt != 100 {
		t.Fatalf("created_at overwritten: %+v", again)
	}
}

func TestUpsertUser_PreservesCreatedAt_AndMergesPicture(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := CreateAnonymousUser(ctx, db, "u1", 100); err != nil {
		t.Fatalf("seed: %v", err)
	}
	pic := "https://cdn/p.png"
	u, err := UpsertUser(ctx, db, "u1", "alice", &pic, 200)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.Username == nil || *u.Username != "alice" {
		t.Fatalf("username not set: %+v", u)
	}
	if u.ProfilePicture == nil || *u.ProfilePicture != pic {
		t.Fatalf("picture not set: %+v", u)
	}
	if u.CreatedAt != 100 || u.UpdatedAt != 200 {
		t.Fatalf("timestamps wrong: created=%d updated=%d", u.CreatedAt, u.UpdatedAt)
	}

	// nil picture leaves the stored one alone.
	u, err = UpsertUser(ctx, db, "u1", "alice2", nil, 300)
	if err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if u.ProfilePicture == nil || *u.ProfilePicture != pic || *u.Username != "alice2" {
		t.Fatalf("merge semantics broken: %+v", u)
	}
}

func TestUpsertUser_NewRow(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	u, err := UpsertUser(context.Background(), db, "fresh", "bob", nil, 50)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.CreatedAt != 50 || *u.Username != "bob" {
		t.Fatalf("unexpected: %+v", u)
	}
}

func TestUpsertUser_DuplicateUsername(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := UpsertUser(ctx, db, "owner", "alice", nil, 1); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := UpsertUser(ctx, db, "intruder", "alice", nil, 2); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// The owner is untouched and the intruder row was not created.
	got, err := GetUserByUsername(ctx, db, "alice")
	if err != nil || got.UID != "owner" {
		t.Fatalf("owner changed: %+v err=%v", got, err)
	}
	if _, err := GetUser(ctx, db, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("intruder row should not exist, err=%v", err)
	}
}

func TestGetUserByUsername_CaseSensitive(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()
	if _, err := UpsertUser(ctx, db, "u1", "Alice", nil, 1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := GetUserByUsername(ctx, db, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for different case, got %v", err)
	}
	if u, err := GetUserByUsername(ctx, db, "Alice"); err != nil || u.UID != "u1" {
		t.Fatalf("exact match failed: %+v %v", u, err)
	}
}

func TestSetProfilePicture_FoundAndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	if err := SetProfilePicture(ctx, db, "ghost", "x", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	seedUser(t, db, "u1")
	if err := SetProfilePicture(ctx, db, "u1", "https://cdn/a.png", 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	u, _ := GetUser(ctx, db, "u1")
	if u.ProfilePicture == nil || *u.ProfilePicture != "https://cdn/a.png" || u.UpdatedAt != 5 {
		t.Fatalf("picture not stored: %+v", u)
	}
}

func TestGetUser_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := GetUser(context.Background(), db, "u1"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected raw DB error without table, got %v", err)
	}
}

func TestUpsertUser_ConcurrentClaimsOneWinner(t *testing.T) {
	// The production opener (WAL, busy timeout, pooled connections) so the
	// claims really race on the unique index.
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "claims.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()

	const n = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		won, taken int
		unexpected []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := UpsertUser(ctx, db, fmt.Sprintf("claimer_%d", i), "alice", nil, int64(100+i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrDuplicate):
				taken++
			default:
				unexpected = append(unexpected, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if len(unexpected) > 0 {
		t.Fatalf("unexpected errors: %v", unexpected)
	}
	if won != 1 || taken != n-1 {
		t.Fatalf("won=%d taken=%d; want 1 and %d", won, taken, n-1)
	}
	var rows int64
	if err := db.Model(&domain.User{}).Where("username = ?", "alice").Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows holding alice = %d", rows)
	}
}
