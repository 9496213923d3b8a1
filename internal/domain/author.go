package domain

import (
	"fmt"
	"strings"
	"time"
)

const maxAuthorNameLength = 100

// Author is a registered writer.
type Author struct {
	id        AuthorID
	name      string
	email     string
	bio       string
	createdAt time.Time
	updatedAt time.Time
}

// NewAuthor creates an author after validating its fields.
func NewAuthor(name, email, bio string) (*Author, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxAuthorNameLength {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxAuthorNameLength)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	return &Author{
		id:        NewAuthorID(),
		name:      name,
		email:     email,
		bio:       bio,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// RestoreAuthor rebuilds an author from persisted state.
func RestoreAuthor(id AuthorID, name, email, bio string, createdAt, updatedAt time.Time) *Author {
	return &Author{
		id:        id,
		name:      name,
		email:     email,
		bio:       bio,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (a *Author) ID() AuthorID         { return a.id }
func (a *Author) Name() string         { return a.name }
func (a *Author) Email() string        { return a.email }
func (a *Author) Bio() string          { return a.bio }
func (a *Author) CreatedAt() time.Time { return a.createdAt }
func (a *Author) UpdatedAt() time.Time { return a.updatedAt }
