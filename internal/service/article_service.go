package service

import (
	"context"

	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/repository"
	"github.com/blog-articles-api/internal/validation"
	"github.com/rs/zerolog"
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	articles  repository.ArticleRepository
	users     repository.UserRepository
	validator *validation.Validator
	log       zerolog.Logger
}

// newArticleService creates a new ArticleService
func newArticleService(articles repository.ArticleRepository, users repository.UserRepository, v *validation.Validator, log zerolog.Logger) *articleService {
	return &articleService{
		articles:  articles,
		users:     users,
		validator: v,
		log:       log.With().Str("service", "article").Logger(),
	}
}

// Create validates the input and persists a new article at version 0
func (s *articleService) Create(ctx context.Context, in *models.CreateArticleInput) (*models.Article, error) {
	if err := s.validator.ValidateCreateArticle(in); err != nil {
		return nil, err
	}

	article := models.NewArticle(*in.Title, *in.Content, in.Tags)
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}

	s.log.Info().Int64("article_id", article.ID).Str("title", article.Title).Msg("Article created")
	return article, nil
}

// List returns all articles in insertion order
func (s *articleService) List(ctx context.Context) ([]*models.Article, error) {
	return s.articles.List(ctx)
}

// GetByID returns the article or nil when it does not exist
func (s *articleService) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return s.articles.GetByID(ctx, id)
}

// GetByIDWithAuthor returns the article with its author loaded
func (s *articleService) GetByIDWithAuthor(ctx context.Context, id int64) (*models.Article, error) {
	return s.articles.GetByIDWithAuthor(ctx, id)
}

// FindByTitle returns the one article with exactly this title, or nil
func (s *articleService) FindByTitle(ctx context.Context, title string) (*models.Article, error) {
	return s.articles.GetByTitle(ctx, title)
}

// Update applies changes, bumps the version once and persists the article.
// No version check is made against concurrent writers.
func (s *articleService) Update(ctx context.Context, id int64, changes models.ArticleChanges) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, models.ErrNotFound
	}

	if err := changes.CheckNulls(); err != nil {
		return nil, err
	}
	changes.Apply(article)
	if err := s.validator.ValidateArticle(article); err != nil {
		return nil, err
	}

	article.BumpVersion()
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}

	s.log.Debug().Int64("article_id", article.ID).Int("version", article.Version).Msg("Article updated")
	return article, nil
}

// Truncate shortens the content in memory only
func (s *articleService) Truncate(article *models.Article, length int) {
	article.Truncate(length)
}

// SetAuthor stores userID as the author of the article and returns the
// article with the author loaded
func (s *articleService) SetAuthor(ctx context.Context, articleID, userID int64) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, models.ErrNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrNotFound
	}

	article.SetAuthor(user)
	if err := s.articles.SetAuthor(ctx, article.ID, article.AuthorID); err != nil {
		return nil, err
	}

	s.log.Info().Int64("article_id", articleID).Int64("author_id", userID).Msg("Article author set")
	return article, nil
}

// Count returns the number of stored articles
func (s *articleService) Count(ctx context.Context) (int, error) {
	return s.articles.Count(ctx)
}

// Clear removes every article
func (s *articleService) Clear(ctx context.Context) error {
	if err := s.articles.DeleteAll(ctx); err != nil {
		return err
	}
	s.log.Warn().Msg("All articles cleared")
	return nil
}
