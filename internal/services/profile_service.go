// Package services – ProfileService
//
// ProfileService owns user profiles: anonymous stub creation, claiming or
// changing a handle, handle lookups for share links, and profile pictures.
//
// Handle uniqueness is enforced twice. A lookup rejects handles owned by
// another uid with a clear error, and the store's unique index closes the
// race between two concurrent claims.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/blob"
	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/observability"
	"github.com/tbourn/anonote-backend/internal/repo"
)

// DefaultMaxUploadBytes caps profile picture uploads.
const DefaultMaxUploadBytes int64 = 5 << 20

// sniffLen is how much of an upload is inspected to detect its type.
const sniffLen = 3072

// imageTypes are the accepted upload types and their object extensions.
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ProfileService manages user profiles.
type ProfileService struct {
	Users UserRepo
	Blobs blob.Store

	// MaxUploadBytes caps picture size; <= 0 means DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// Now is the clock; nil means time.Now.
	Now func() time.Time
	// NewID mints anonymous uids; nil means auth.NewAnonymousID.
	NewID func(time.Time) string
}

// NewProfileService constructs a ProfileService with default limits.
func NewProfileService(users UserRepo, blobs blob.Store) *ProfileService {
	return &ProfileService{
		Users:          users,
		Blobs:          blobs,
		MaxUploadBytes: DefaultMaxUploadBytes,
		Now:            time.Now,
		NewID:          auth.NewAnonymousID,
	}
}

func (s *ProfileService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// CreateAnonymous mints a fresh uid and stores a username-less profile.
func (s *ProfileService) CreateAnonymous(ctx context.Context) (*domain.User, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "CreateAnonymous")
	defer span.End()

	now := s.now()
	newID := s.NewID
	if newID == nil {
		newID = auth.NewAnonymousID
	}
	uid := newID(now)
	span.SetAttributes(attribute.String("user.id", uid))
	return s.Users.CreateAnonymousUser(ctx, uid, now.UnixMilli())
}

// CreateOrUpdate claims username for uid and optionally sets the picture.
// Existing fields are merged and createdAt is preserved.
//
// Errors: ErrInvalidUsername, ErrInvalidPicture, ErrUsernameTaken, or the
// store error.
func (s *ProfileService) CreateOrUpdate(ctx context.Context, uid, username string, picture *string) (*domain.User, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "CreateOrUpdate",
		trace.WithAttributes(attribute.String("user.id", uid)),
	)
	defer span.End()

	username = strings.TrimSpace(username)
	if picture != nil {
		p := strings.TrimSpace(*picture)
		if p == "" {
			picture = nil
		} else {
			picture = &p
		}
	}
	if strings.TrimSpace(uid) == "" {
		return nil, ErrUserNotFound
	}
	if err := validateProfile(username, picture); err != nil {
		return nil, err
	}

	owner, err := s.Users.GetUserByUsername(ctx, username)
	switch {
	case err == nil && owner.UID != uid:
		return nil, ErrUsernameTaken
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	u, err := s.Users.UpsertUser(ctx, uid, username, picture, s.now().UnixMilli())
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrUsernameTaken
	}
	return u, err
}

// Get returns the profile for uid or ErrUserNotFound.
func (s *ProfileService) Get(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.Users.GetUser(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetByUsername resolves a share-link handle. Malformed handles are reported
// as ErrUserNotFound without touching the store.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if !ValidUsername(username) {
		return nil, ErrUserNotFound
	}
	u, err := s.Users.GetUserByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// SetProfilePicture records url as the avatar of uid.
func (s *ProfileService) SetProfilePicture(ctx context.Context, uid, url string) error {
	err := s.Users.SetProfilePicture(ctx, uid, url, s.now().UnixMilli())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// UploadProfilePicture stores an image for uid and sets it as the avatar.
// The type is detected from content, not from the client's filename or
// header. Only PNG, JPEG, GIF and WebP are accepted.
func (s *ProfileService) UploadProfilePicture(ctx context.Context, uid string, r io.Reader) (string, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "UploadProfilePicture",
		trace.WithAttributes(attribute.String("user.id", uid)),
	)
	defer span.End()

	url, err := s.upload(ctx, uid, r)
	switch {
	case err == nil:
		observability.Uploads.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrUnsupportedMedia), errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrEmptyFile), errors.Is(err, ErrUserNotFound):
		observability.Uploads.WithLabelValues("rejected").Inc()
	default:
		observability.Uploads.WithLabelValues("error").Inc()
		span.RecordError(err)
	}
	return url, err
}

func (s *ProfileService) upload(ctx context.Context, uid string, r io.Reader) (string, error) {
	if s.Blobs == nil {
		return "", errors.New("blob store not configured")
	}
	if _, err := s.Get(ctx, uid); err != nil {
		return "", err
	}

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return "", ErrFileTooLarge
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	mt := mimetype.Detect(head)
	ext, ok := imageTypes[mt.String()]
	if !ok {
		return "", ErrUnsupportedMedia
	}

	key := fmt.Sprintf("profiles/%s-%d%s", uid, s.now().UnixMilli(), ext)
	url, err := s.Blobs.Put(ctx, key, mt.String(), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	if err := s.SetProfilePicture(ctx, uid, url); err != nil {
		return "", err
	}
	return url, nil
}
