package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /articles
func (h *ArticleHandler) List(c *gin.Context) {
	articles, err := h.services.Article.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list articles")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, articles)
}

// Get handles GET /articles/:id
// ?include=author eager loads the author
func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		article *models.Article
		err     error
	)
	if c.Query("include") == "author" {
		article, err = h.services.Article.GetByIDWithAuthor(ctx, id)
	} else {
		article, err = h.services.Article.GetByID(ctx, id)
	}
	if err != nil {
		h.log.Error().Err(err).Int64("article_id", id).Msg("Failed to get article")
		c.Status(http.StatusInternalServerError)
		return
	}
	if article == nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, article)
}

// Create handles POST /articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var in models.CreateArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.log.Warn().Err(err).Msg("Malformed article body")
		c.Status(http.StatusInternalServerError)
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err, "Failed to create article")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Created successfully",
		"article": article,
	})
}

// Update handles PUT /articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var changes models.ArticleChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		h.log.Warn().Err(err).Int64("article_id", id).Msg("Malformed article body")
		c.Status(http.StatusInternalServerError)
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), id, changes)
	if err != nil {
		h.respondError(c, err, "Failed to update article")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Updated successfully",
		"article": article,
	})
}

// SetAuthor handles PUT /articles/:id/author
func (h *ArticleHandler) SetAuthor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		UserID *int64 `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == nil {
		h.log.Warn().Err(err).Int64("article_id", id).Msg("Malformed author body")
		c.Status(http.StatusInternalServerError)
		return
	}

	article, err := h.services.Article.SetAuthor(c.Request.Context(), id, *req.UserID)
	if err != nil {
		h.respondError(c, err, "Failed to set article author")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Author set successfully",
		"article": article,
	})
}

// respondError maps service errors to bare status codes
func (h *ArticleHandler) respondError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	if errors.Is(err, models.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	event := h.log.Error()
	if models.IsValidation(err) {
		event = h.log.Warn()
	}
	event.Err(err).Msg(msg)
	c.Status(http.StatusInternalServerError)
}

// parseID reads the :id path parameter. Anything that is not an integer
// cannot name a record and is answered with 404.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusNotFound)
		return 0, false
	}
	return id, true
}
