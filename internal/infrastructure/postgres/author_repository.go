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

// AuthorRepository implements domain.AuthorRepository using Postgres.
type AuthorRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorRepository creates a new AuthorRepository.
func NewAuthorRepository(pool *pgxpool.Pool) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

// FindByID retrieves an author by ID.
func (r *AuthorRepository) FindByID(ctx context.Context, id domain.AuthorID) (*domain.Author, error) {
	query := `SELECT id, name, email, COALESCE(bio, ''), created_at, updated_at FROM articles.authors WHERE id = $1`

	var (
		authorID             uuid.UUID
		name, email, bio     string
		createdAt, updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, query, id.UUID()).Scan(&authorID, &name, &email, &bio, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding author: %w", err)
	}

	aid, err := domain.ParseAuthorID(authorID.String())
	if err != nil {
		return nil, fmt.Errorf("scanning author: %w", err)
	}
	return domain.RestoreAuthor(aid, name, email, bio, createdAt, updatedAt), nil
}

// ListArticles returns the author's articles, newest first.
func (r *AuthorRepository) ListArticles(ctx context.Context, id domain.AuthorID, limit, offset int) ([]*domain.Article, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM articles.articles
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, articleColumns)

	rows, err := r.pool.Query(ctx, query, id.UUID(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing author articles: %w", err)
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
		return nil, fmt.Errorf("iterating author articles: %w", err)
	}
	return articles, nil
}
