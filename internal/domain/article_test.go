package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewArticle_Validation(t *testing.T) {
	authorID := NewAuthorID()

	tests := []struct {
		name    string
		author  AuthorID
		title   string
		slug    string
		body    string
		wantErr bool
	}{
		{"valid", authorID, "Go at Work", "go-at-work", "content", false},
		{"single_word_slug", authorID, "Title", "title", "content", false},
		{"missing_author", AuthorID{}, "Title", "slug", "content", true},
		{"empty_title", authorID, "", "slug", "content", true},
		{"title_too_long", authorID, strings.Repeat("x", 201), "slug", "content", true},
		{"empty_slug", authorID, "Title", "", "content", true},
		{"uppercase_slug", authorID, "Title", "Go-At-Work", "content", true},
		{"slug_with_spaces", authorID, "Title", "go at work", "content", true},
		{"slug_trailing_dash", authorID, "Title", "go-at-work-", "content", true},
		{"slug_too_long", authorID, "Title", strings.Repeat("a", 81), "content", true},
		{"empty_body", authorID, "Title", "slug", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := NewArticle(tt.author, tt.title, tt.slug, tt.body)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if article.Published() {
				t.Error("new articles must start as drafts")
			}
			if article.ID().IsZero() {
				t.Error("expected generated id")
			}
		})
	}
}

func TestArticle_Publish(t *testing.T) {
	article, err := NewArticle(NewAuthorID(), "Title", "slug", "content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	article.Publish()
	if !article.Published() {
		t.Fatal("expected published article")
	}

	firstUpdate := article.UpdatedAt()
	article.Publish() // repeat is a no-op
	if article.UpdatedAt() != firstUpdate {
		t.Error("republishing must not touch the timestamp")
	}
}

func TestNewComment_Validation(t *testing.T) {
	articleID := NewArticleID()

	tests := []struct {
		name       string
		article    ArticleID
		authorName string
		body       string
		wantErr    bool
	}{
		{"valid", articleID, "reader", "nice post", false},
		{"missing_article", ArticleID{}, "reader", "nice post", true},
		{"empty_author", articleID, "  ", "nice post", true},
		{"empty_body", articleID, "reader", "", true},
		{"body_too_long", articleID, "reader", strings.Repeat("x", 2001), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComment(tt.article, tt.authorName, tt.body)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewAuthor_NormalizesEmail(t *testing.T) {
	author, err := NewAuthor("Marta", "  Marta@Example.COM ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if author.Email() != "marta@example.com" {
		t.Errorf("expected normalized email, got %q", author.Email())
	}

	if _, err := NewAuthor("Marta", "not-an-email", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	id := NewArticleID()
	parsed, err := ParseArticleID(id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Error("expected round-tripped id")
	}

	if _, err := ParseArticleID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed id")
	}
}
