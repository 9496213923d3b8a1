package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxTitleLength = 200
	maxSlugLength  = 80
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Article is a published or draft piece written by an author.
type Article struct {
	id        ArticleID
	authorID  AuthorID
	title     string
	slug      string
	body      string
	published bool
	createdAt time.Time
	updatedAt time.Time
}

// NewArticle creates a draft article after validating its fields.
func NewArticle(authorID AuthorID, title, slug, body string) (*Article, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLength)
	}
	if authorID.IsZero() {
		return nil, fmt.Errorf("%w: author id is required", ErrInvalidInput)
	}
	if len(slug) > maxSlugLength || !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: slug must be lowercase kebab-case, max %d characters", ErrInvalidInput, maxSlugLength)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	return &Article{
		id:        NewArticleID(),
		authorID:  authorID,
		title:     title,
		slug:      slug,
		body:      body,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// RestoreArticle rebuilds an article from persisted state.
func RestoreArticle(id ArticleID, authorID AuthorID, title, slug, body string, published bool, createdAt, updatedAt time.Time) *Article {
	return &Article{
		id:        id,
		authorID:  authorID,
		title:     title,
		slug:      slug,
		body:      body,
		published: published,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Publish marks the article as published.
func (a *Article) Publish() {
	if a.published {
		return
	}
	a.published = true
	a.updatedAt = time.Now().UTC()
}

func (a *Article) ID() ArticleID        { return a.id }
func (a *Article) AuthorID() AuthorID   { return a.authorID }
func (a *Article) Title() string        { return a.title }
func (a *Article) Slug() string         { return a.slug }
func (a *Article) Body() string         { return a.body }
func (a *Article) Published() bool      { return a.published }
func (a *Article) CreatedAt() time.Time { return a.createdAt }
func (a *Article) UpdatedAt() time.Time { return a.updatedAt }
