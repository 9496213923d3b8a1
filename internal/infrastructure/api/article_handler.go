package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/mcastillo/reqtx"
	"github.com/mcastillo/reqtx/internal/domain"
	"github.com/mcastillo/reqtx/internal/infrastructure/cache"
	"github.com/mcastillo/reqtx/internal/infrastructure/logging"
)

// ArticleHandler handles article-related HTTP endpoints. reads go through the
// pool-backed repository; writes run inside request transactions and reach
// the database through the per-request query interface and bound models.
type ArticleHandler struct {
	bridge *reqtx.Bridge
	repo   domain.ArticleRepository
	cache  *cache.RedisClient
	logger *logging.Logger
}

// NewArticleHandler creates a new ArticleHandler. cache may be nil.
func NewArticleHandler(bridge *reqtx.Bridge, repo domain.ArticleRepository, rc *cache.RedisClient, logger *logging.Logger) *ArticleHandler {
	return &ArticleHandler{
		bridge: bridge,
		repo:   repo,
		cache:  rc,
		logger: logger.WithComponent("article_handler"),
	}
}

// RegisterRoutes registers article routes on the given group.
func (h *ArticleHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/articles", h.List)
	g.GET("/articles/:slug", h.GetBySlug)

	g.POST("/articles", h.bridge.Wrap(h.create, reqtx.Options{
		Transaction: true,
		Signature: reqtx.Signature{
			Leading:      3,
			Capabilities: []string{"query", "Article"},
		},
	}), RequireWriter())

	g.POST("/articles/:id/publish", h.bridge.Wrap(h.publish, reqtx.Options{
		Transaction: true,
		Signature: reqtx.Signature{
			Leading:      3,
			Capabilities: []string{"query"},
		},
	}), RequireWriter())

	g.POST("/articles/:id/comments", h.bridge.Wrap(h.addComment, reqtx.Options{
		Transaction: true,
		Signature: reqtx.Signature{
			Leading:      3,
			Capabilities: []string{"Comment"},
		},
	}))
}

// articleResponse is the API representation of an article.
type articleResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// listArticlesResponse is the API response for listing articles.
type listArticlesResponse struct {
	Articles []articleResponse `json:"articles"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type createArticleRequest struct {
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Body     string `json:"body"`
}

type createCommentRequest struct {
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
}

// commentResponse is the API representation of a comment.
type commentResponse struct {
	ID         string    `json:"id"`
	ArticleID  string    `json:"article_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// List returns published articles, newest first.
// GET /api/v1/articles?limit=20&offset=0
func (h *ArticleHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	// parse pagination params with defaults
	limit := 20
	offset := 0

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	// only the default page is cached
	cacheable := h.cache != nil && limit == 20 && offset == 0
	if cacheable {
		if payload, err := h.cache.GetArticleList(ctx); err == nil {
			return c.JSONBlob(http.StatusOK, payload)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("article list cache read failed", "error", err.Error())
		}
	}

	articles, err := h.repo.ListPublished(ctx, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch articles")
	}

	response := listArticlesResponse{
		Articles: make([]articleResponse, 0, len(articles)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, a := range articles {
		response.Articles = append(response.Articles, toArticleResponse(a))
	}

	if cacheable {
		payload, merr := json.Marshal(response)
		if merr == nil {
			if cerr := h.cache.SetArticleList(ctx, payload); cerr != nil {
				h.logger.Warn("article list cache write failed", "error", cerr.Error())
			}
		}
	}

	return c.JSON(http.StatusOK, response)
}

// GetBySlug returns a single article by slug.
// GET /api/v1/articles/:slug
func (h *ArticleHandler) GetBySlug(c echo.Context) error {
	article, err := h.repo.FindBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toArticleResponse(article))
}

// create inserts a draft article inside the request transaction.
// POST /api/v1/articles
func (h *ArticleHandler) create(c echo.Context, args reqtx.Args) error {
	ctx := c.Request().Context()

	var req createArticleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	authorID, err := domain.ParseAuthorID(req.AuthorID)
	if err != nil {
		return fmt.Errorf("%w: invalid author id", domain.ErrInvalidInput)
	}

	article, err := domain.NewArticle(authorID, req.Title, req.Slug, req.Body)
	if err != nil {
		return err
	}

	articles := args.Model("Article")
	insert := fmt.Sprintf(`
		INSERT INTO %s (id, author_id, title, slug, body, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, articles.Table)

	_, err = articles.Querier().Exec(ctx, insert,
		article.ID().UUID(), article.AuthorID().UUID(),
		article.Title(), article.Slug(), article.Body(), article.Published(),
		article.CreatedAt(), article.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slug %q is taken", domain.ErrAlreadyExists, article.Slug())
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown author", domain.ErrNotFound)
		}
		return fmt.Errorf("inserting article: %w", err)
	}

	h.invalidateListing(ctx)

	return c.JSON(http.StatusCreated, toArticleResponse(article))
}

// publish flips an article to published inside the request transaction.
// POST /api/v1/articles/:id/publish
func (h *ArticleHandler) publish(c echo.Context, args reqtx.Args) error {
	ctx := c.Request().Context()

	id, err := domain.ParseArticleID(c.Param("id"))
	if err != nil {
		return fmt.Errorf("%w: invalid article id", domain.ErrInvalidInput)
	}

	tag, err := args.Query().Exec(ctx,
		`UPDATE articles.articles SET published = TRUE, updated_at = now() WHERE id = $1`,
		id.UUID(),
	)
	if err != nil {
		return fmt.Errorf("publishing article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	h.invalidateListing(ctx)

	return c.NoContent(http.StatusNoContent)
}

// addComment attaches a comment to an article inside the request transaction.
// the article is checked through the comment model's relation, so both sides
// of the lookup share the transaction.
// POST /api/v1/articles/:id/comments
func (h *ArticleHandler) addComment(c echo.Context, args reqtx.Args) error {
	ctx := c.Request().Context()

	articleID, err := domain.ParseArticleID(c.Param("id"))
	if err != nil {
		return fmt.Errorf("%w: invalid article id", domain.ErrInvalidInput)
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	comments := args.Model("Comment")
	rel, ok := comments.Relation("ArticleRel")
	if !ok {
		return fmt.Errorf("comment model is missing its article relation")
	}
	articles := rel.Target()

	var exists bool
	row := articles.Querier().QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, articles.Table),
		articleID.UUID(),
	)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("checking article: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	comment, err := domain.NewComment(articleID, req.AuthorName, req.Body)
	if err != nil {
		return err
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (id, article_id, author_name, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, comments.Table)

	_, err = comments.Querier().Exec(ctx, insert,
		comment.ID().UUID(), comment.ArticleID().UUID(),
		comment.AuthorName(), comment.Body(), comment.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	return c.JSON(http.StatusCreated, commentResponse{
		ID:         comment.ID().String(),
		ArticleID:  comment.ArticleID().String(),
		AuthorName: comment.AuthorName(),
		Body:       comment.Body(),
		CreatedAt:  comment.CreatedAt(),
	})
}

// invalidateListing drops the cached listing after a write. best effort.
func (h *ArticleHandler) invalidateListing(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateArticleList(ctx); err != nil {
		h.logger.Warn("article list cache invalidation failed", "error", err.Error())
	}
}

// toArticleResponse converts a domain article to API response.
func toArticleResponse(a *domain.Article) articleResponse {
	return articleResponse{
		ID:        a.ID().String(),
		AuthorID:  a.AuthorID().String(),
		Title:     a.Title(),
		Slug:      a.Slug(),
		Body:      a.Body(),
		Published: a.Published(),
		CreatedAt: a.CreatedAt(),
		UpdatedAt: a.UpdatedAt(),
	}
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a Postgres foreign_key_violation.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
