package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcastillo/reqtx/internal/domain"
)

// ArticleRepository implements domain.ArticleRepository using Postgres.
type ArticleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

const articleColumns = `id, author_id, title, slug, body, published, created_at, updated_at`

// FindByID retrieves an article by its ID.
func (r *ArticleRepository) FindByID(ctx context.Context, id domain.ArticleID) (*domain.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles.articles WHERE id = $1`, articleColumns)
	return r.scanArticle(ctx, query, id.UUID())
}

// FindBySlug retrieves an article by its slug.
func (r *ArticleRepository) FindBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles.articles WHERE slug = $1`, articleColumns)
	return r.scanArticle(ctx, query, slug)
}

// ListPublished returns published articles, newest first.
func (r *ArticleRepository) ListPublished(ctx context.Context, limit, offset int) ([]*domain.Article, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM articles.articles
		WHERE published
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, articleColumns)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing published articles: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		article, err := scanArticleRow(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}
	return articles, nil
}

func (r *ArticleRepository) scanArticle(ctx context.Context, query string, arg any) (*domain.Article, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	article, err := scanArticleRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticleRow(row rowScanner) (*domain.Article, error) {
	var (
		id, authorID         uuid.UUID
		title, slug, body    string
		published            bool
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &authorID, &title, &slug, &body, &published, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	articleID, err := domain.ParseArticleID(id.String())
	if err != nil {
		return nil, fmt.Errorf("scanning article: %w", err)
	}
	aid, err := domain.ParseAuthorID(authorID.String())
	if err != nil {
		return nil, fmt.Errorf("scanning article author: %w", err)
	}

	return domain.RestoreArticle(articleID, aid, title, slug, body, published, createdAt, updatedAt), nil
}
