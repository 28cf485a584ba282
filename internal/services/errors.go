package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")

	// ErrForbidden is the ownership flavour of ErrUnauthorized.
	ErrForbidden = fmt.Errorf("%w: not the owner", ErrUnauthorized)
)

const (
	MaxPostLength    = 280
	MaxCommentLength = 500
	MaxBioLength     = 150
)

// Viewer is the identity behind a request. The zero Viewer is anonymous.
type Viewer struct {
	UserID uuid.UUID
}

// ViewerFromID builds a Viewer from a session user id. Anything that is not
// a uuid yields the anonymous viewer.
func ViewerFromID(id string) Viewer {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Viewer{}
	}
	return Viewer{UserID: parsed}
}

func (v Viewer) Authenticated() bool {
	return v.UserID != uuid.Nil
}

func requireViewer(v Viewer) error {
	if !v.Authenticated() {
		return fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	return nil
}

// normalizeText trims s and checks it is non-empty and at most max runes.
func normalizeText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", ErrValidation, field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%w: %s exceeds %d characters", ErrValidation, field, max)
	}
	return s, nil
}

func parseID(kind, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s ID", ErrValidation, kind)
	}
	return parsed, nil
}
