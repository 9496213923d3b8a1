package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubQuerier is a do-nothing query interface for registry tests.
type stubQuerier struct{ name string }

func (s *stubQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (s *stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (s *stubQuerier) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

func blogModels() []*Model {
	return []*Model{
		NewModel("Author", "authors").
			HasMany("ArticlesRel", "Article", "author_id"),
		NewModel("Article", "articles").
			BelongsTo("AuthorRel", "Author", "author_id").
			HasMany("CommentsRel", "Comment", "article_id"),
		NewModel("Comment", "comments").
			BelongsTo("ArticleRel", "Article", "article_id"),
	}
}

func TestRegistry_RegisterResolvesCycles(t *testing.T) {
	shared := &stubQuerier{name: "shared"}
	r := NewRegistry(shared)
	if err := r.Register(blogModels()...); err != nil {
		t.Fatalf("register: %v", err)
	}

	article, ok := r.Model("Article")
	if !ok {
		t.Fatal("expected Article registered")
	}
	if article.Querier() != shared {
		t.Error("expected registered model on the shared querier")
	}

	rel, ok := article.Relation("AuthorRel")
	if !ok {
		t.Fatal("expected AuthorRel resolved")
	}
	author, _ := r.Model("Author")
	if rel.Target() != author {
		t.Error("expected relation target resolved to the registered author")
	}

	// cycle: author's articles point back at the registered article
	back, _ := author.Relation("ArticlesRel")
	if back.Target() != article {
		t.Error("expected cyclic relation resolved")
	}
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry(&stubQuerier{})
	if err := r.Register(blogModels()...); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, name := range []string{"article", "ARTICLE", "Article"} {
		if _, ok := r.Model(name); !ok {
			t.Errorf("expected lookup %q to succeed", name)
		}
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		models  []*Model
		wantSub string
	}{
		{
			name: "duplicate_model",
			models: []*Model{
				NewModel("Author", "authors"),
				NewModel("author", "authors_again"),
			},
			wantSub: "already registered",
		},
		{
			name: "accessor_missing_suffix",
			models: []*Model{
				NewModel("Author", "authors").
					HasMany("Articles", "Article", "author_id"),
				NewModel("Article", "articles"),
			},
			wantSub: "must end in",
		},
		{
			name: "unregistered_target",
			models: []*Model{
				NewModel("Article", "articles").
					BelongsTo("AuthorRel", "Author", "author_id"),
			},
			wantSub: "unregistered model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(&stubQuerier{})
			err := r.Register(tt.models...)
			if err == nil {
				t.Fatal("expected registration error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("expected error containing %q, got %v", tt.wantSub, err)
			}
		})
	}
}

func TestModel_WithQuerierDerivation(t *testing.T) {
	shared := &stubQuerier{name: "shared"}
	txq := &stubQuerier{name: "tx"}

	r := NewRegistry(shared)
	if err := r.Register(blogModels()...); err != nil {
		t.Fatalf("register: %v", err)
	}

	article, _ := r.Model("Article")
	derived := article.WithQuerier(txq)

	if derived.Querier() != txq {
		t.Error("expected derived model on the new querier")
	}
	if article.Querier() != shared {
		t.Error("derivation must not touch the registered model")
	}

	// relations are shared until overridden
	rel, ok := derived.Relation("AuthorRel")
	if !ok {
		t.Fatal("expected shared relation on derived model")
	}
	regRel, _ := article.Relation("AuthorRel")
	if rel != regRel {
		t.Error("expected derived model to share the registered descriptor")
	}

	// an override shadows the registered descriptor on the derived model only
	boundAuthor := rel.Target().WithQuerier(txq)
	derived.Override(rel.Rebound(derived, boundAuthor))

	overridden, _ := derived.Relation("AuthorRel")
	if overridden == regRel {
		t.Error("expected override to shadow the registered descriptor")
	}
	if overridden.Target() != boundAuthor {
		t.Error("expected override target in effect")
	}
	if after, _ := article.Relation("AuthorRel"); after != regRel {
		t.Error("override leaked into the registered model")
	}
}

func TestModel_RelationsSortedWithOverrides(t *testing.T) {
	r := NewRegistry(&stubQuerier{})
	if err := r.Register(blogModels()...); err != nil {
		t.Fatalf("register: %v", err)
	}

	article, _ := r.Model("Article")
	rels := article.Relations()
	if len(rels) != 2 {
		t.Fatalf("expected 2 relations, got %d", len(rels))
	}
	if rels[0].Name != "AuthorRel" || rels[1].Name != "CommentsRel" {
		t.Errorf("expected sorted accessors, got %s, %s", rels[0].Name, rels[1].Name)
	}
}
