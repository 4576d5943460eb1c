package services

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/anonote-backend/internal/sanitize"
)

// Content limits.
const (
	DefaultMaxContentRunes = 500
	DefaultMaxNoteRunes    = 200
)

var handleRE = regexp.MustCompile(`^[a-zA-Z0-9_]{1,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handleRE.MatchString(fl.Field().String())
	})
	return v
}

type profileInput struct {
	Username string  `validate:"required,handle"`
	Picture  *string `validate:"omitempty,url"`
}

// ValidUsername reports whether s is a well-formed handle.
func ValidUsername(s string) bool {
	return validate.Var(s, "required,handle") == nil
}

func validateProfile(username string, picture *string) error {
	err := validate.Struct(profileInput{Username: username, Picture: picture})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Username" {
				return ErrInvalidUsername
			}
		}
		return ErrInvalidPicture
	}
	return ErrInvalidUsername
}

// cleanText normalizes s and enforces the non-empty and max-rune rules.
func cleanText(s string, max int) (string, error) {
	s = sanitize.Text(s)
	if s == "" {
		return "", ErrEmptyContent
	}
	if max > 0 && utf8.RuneCountInString(s) > max {
		return "", ErrTooLong
	}
	return s, nil
}

// cleanNote normalizes an optional note. Blank notes become nil.
func cleanNote(note *string, max int) (*string, error) {
	n := sanitize.Optional(note)
	if n != nil && max > 0 && utf8.RuneCountInString(*n) > max {
		return nil, ErrTooLong
	}
	return n, nil
}
