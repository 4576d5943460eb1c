// Package services holds the business logic for profiles, the anonymous
// inbox, the global chat and the Q&A board. This file centralizes the
// service-level error values so that service methods return them consistently
// and callers can check them with errors.Is.
//
// Translation into HTTP status codes is done by the handler layer.
package services

import "errors"

// Validation errors.
var (
	// ErrEmptyContent is returned when text is empty after trimming and
	// sanitizing.
	ErrEmptyContent = errors.New("content is empty")

	// ErrTooLong is returned when text exceeds the configured rune limit.
	ErrTooLong = errors.New("content too long")

	// ErrInvalidUsername is returned for handles outside ^[a-zA-Z0-9_]{1,20}$.
	ErrInvalidUsername = errors.New("username must be 1-20 letters, digits or underscores")

	// ErrInvalidPicture is returned when a profile picture is not an absolute URL.
	ErrInvalidPicture = errors.New("profile picture must be an absolute URL")

	// ErrUnsupportedMedia is returned for uploads that are not a supported image.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrFileTooLarge is returned for uploads over the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")
)

// Lookup and conflict errors.
var (
	// ErrUsernameTaken is returned when the handle belongs to another uid.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserNotFound indicates that no profile exists for the given uid or
	// handle.
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound indicates that the message is not in the given inbox.
	ErrMessageNotFound = errors.New("message not found")

	// ErrQuestionNotFound indicates that the question does not exist.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrReplyNotFound indicates that the reply does not exist under the
	// given question.
	ErrReplyNotFound = errors.New("reply not found")
)
