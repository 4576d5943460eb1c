// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them. Generic
// codes mirror HTTP status semantics, domain codes refine a 400.
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "username_taken",
//	  "message": "username already taken",
//	  "error": "username already taken"
//	}

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeUsernameTaken    = "username_taken"
	ErrCodeUnsupportedMedia = "unsupported_media"
	ErrCodeFileTooLarge     = "file_too_large"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
