package domain

import (
	"fmt"
	"strings"
	"time"
)

const maxCommentLength = 2000

// Comment is a reader comment attached to an article.
type Comment struct {
	id         CommentID
	articleID  ArticleID
	authorName string
	body       string
	createdAt  time.Time
}

// NewComment creates a comment after validating its fields.
func NewComment(articleID ArticleID, authorName, body string) (*Comment, error) {
	if articleID.IsZero() {
		return nil, fmt.Errorf("%w: article id is required", ErrInvalidInput)
	}
	authorName = strings.TrimSpace(authorName)
	if authorName == "" {
		return nil, fmt.Errorf("%w: author name is required", ErrInvalidInput)
	}
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxCommentLength {
		return nil, fmt.Errorf("%w: body must be 1-%d characters", ErrInvalidInput, maxCommentLength)
	}

	return &Comment{
		id:         NewCommentID(),
		articleID:  articleID,
		authorName: authorName,
		body:       body,
		createdAt:  time.Now().UTC(),
	}, nil
}

// RestoreComment rebuilds a comment from persisted state.
func RestoreComment(id CommentID, articleID ArticleID, authorName, body string, createdAt time.Time) *Comment {
	return &Comment{
		id:         id,
		articleID:  articleID,
		authorName: authorName,
		body:       body,
		createdAt:  createdAt,
	}
}

func (c *Comment) ID() CommentID        { return c.id }
func (c *Comment) ArticleID() ArticleID { return c.articleID }
func (c *Comment) AuthorName() string   { return c.authorName }
func (c *Comment) Body() string         { return c.body }
func (c *Comment) CreatedAt() time.Time { return c.createdAt }
