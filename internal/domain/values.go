package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// AuthorID represents a unique identifier for an author.
// wrapping uuid to enforce type safety and prevent mixing with other ids.
type AuthorID struct {
	value uuid.UUID
}

// NewAuthorID creates a new random AuthorID.
func NewAuthorID() AuthorID {
	return AuthorID{value: uuid.New()}
}

// ParseAuthorID parses a string into an AuthorID.
func ParseAuthorID(s string) (AuthorID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AuthorID{}, fmt.Errorf("invalid author id: %w", err)
	}
	return AuthorID{value: id}, nil
}

// String returns the string representation of the AuthorID.
func (id AuthorID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id AuthorID) UUID() uuid.UUID {
	return id.value
}

// IsZero reports whether the id is the zero value.
func (id AuthorID) IsZero() bool {
	return id.value == uuid.Nil
}

// ArticleID represents a unique identifier for an article.
type ArticleID struct {
	value uuid.UUID
}

// NewArticleID creates a new random ArticleID.
func NewArticleID() ArticleID {
	return ArticleID{value: uuid.New()}
}

// ParseArticleID parses a string into an ArticleID.
func ParseArticleID(s string) (ArticleID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ArticleID{}, fmt.Errorf("invalid article id: %w", err)
	}
	return ArticleID{value: id}, nil
}

// String returns the string representation of the ArticleID.
func (id ArticleID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id ArticleID) UUID() uuid.UUID {
	return id.value
}

// IsZero reports whether the id is the zero value.
func (id ArticleID) IsZero() bool {
	return id.value == uuid.Nil
}

// CommentID represents a unique identifier for a comment.
type CommentID struct {
	value uuid.UUID
}

// NewCommentID creates a new random CommentID.
func NewCommentID() CommentID {
	return CommentID{value: uuid.New()}
}

// ParseCommentID parses a string into a CommentID.
func ParseCommentID(s string) (CommentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CommentID{}, fmt.Errorf("invalid comment id: %w", err)
	}
	return CommentID{value: id}, nil
}

// String returns the string representation of the CommentID.
func (id CommentID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id CommentID) UUID() uuid.UUID {
	return id.value
}
