package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mcastillo/reqtx"
	"github.com/mcastillo/reqtx/internal/domain"
)

// AuthorHandler handles author-related HTTP endpoints. the write path uses
// the pipeline-wide transaction middleware rather than per-handler wrapping,
// reaching the transaction through the request scope.
type AuthorHandler struct {
	bridge *reqtx.Bridge
	repo   domain.AuthorRepository
}

// NewAuthorHandler creates a new AuthorHandler.
func NewAuthorHandler(bridge *reqtx.Bridge, repo domain.AuthorRepository) *AuthorHandler {
	return &AuthorHandler{
		bridge: bridge,
		repo:   repo,
	}
}

// RegisterRoutes registers author routes on the given group.
func (h *AuthorHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/authors/:id", h.Get)
	g.POST("/authors", h.Create, RequireWriter(), h.bridge.Transaction())
}

// authorResponse is the API representation of an author.
type authorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// authorWithArticlesResponse is the API response for fetching an author.
type authorWithArticlesResponse struct {
	Author   authorResponse    `json:"author"`
	Articles []articleResponse `json:"articles"`
}

type createAuthorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

// Get returns an author with their most recent articles.
// GET /api/v1/authors/:id
func (h *AuthorHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := domain.ParseAuthorID(c.Param("id"))
	if err != nil {
		return fmt.Errorf("%w: invalid author id", domain.ErrInvalidInput)
	}

	author, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	articles, err := h.repo.ListArticles(ctx, id, 20, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch author articles")
	}

	response := authorWithArticlesResponse{
		Author:   toAuthorResponse(author),
		Articles: make([]articleResponse, 0, len(articles)),
	}
	for _, a := range articles {
		response.Articles = append(response.Articles, toArticleResponse(a))
	}

	return c.JSON(http.StatusOK, response)
}

// Create registers a new author. the surrounding transaction middleware owns
// begin and close; this handler only queries through the request scope.
// POST /api/v1/authors
func (h *AuthorHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req createAuthorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	author, err := domain.NewAuthor(req.Name, req.Email, req.Bio)
	if err != nil {
		return err
	}

	q := reqtx.From(c).Querier()
	_, err = q.Exec(ctx, `
		INSERT INTO articles.authors (id, name, email, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		author.ID().UUID(), author.Name(), author.Email(), author.Bio(),
		author.CreatedAt(), author.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %q is taken", domain.ErrAlreadyExists, author.Email())
		}
		return fmt.Errorf("inserting author: %w", err)
	}

	return c.JSON(http.StatusCreated, toAuthorResponse(author))
}

// toAuthorResponse converts a domain author to API response.
func toAuthorResponse(a *domain.Author) authorResponse {
	return authorResponse{
		ID:        a.ID().String(),
		Name:      a.Name(),
		Email:     a.Email(),
		Bio:       a.Bio(),
		CreatedAt: a.CreatedAt(),
	}
}
