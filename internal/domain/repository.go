package domain

import "context"

// ArticleRepository is the read-side access to persisted articles.
// writes happen inside request transactions through the scoped query
// interface, not through this interface.
type ArticleRepository interface {
	FindByID(ctx context.Context, id ArticleID) (*Article, error)
	FindBySlug(ctx context.Context, slug string) (*Article, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*Article, error)
}

// AuthorRepository is the read-side access to persisted authors.
type AuthorRepository interface {
	FindByID(ctx context.Context, id AuthorID) (*Author, error)
	ListArticles(ctx context.Context, id AuthorID, limit, offset int) ([]*Article, error)
}
