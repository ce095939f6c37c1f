package service

import (
	"context"

	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/repository"
	"github.com/blog-articles-api/internal/validation"
	"github.com/rs/zerolog"
)

// ArticleService defines the article store operations.
// Lookups return (nil, nil) when the article does not exist.
type ArticleService interface {
	Create(ctx context.Context, in *models.CreateArticleInput) (*models.Article, error)
	List(ctx context.Context) ([]*models.Article, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetByIDWithAuthor(ctx context.Context, id int64) (*models.Article, error)
	FindByTitle(ctx context.Context, title string) (*models.Article, error)
	Update(ctx context.Context, id int64, changes models.ArticleChanges) (*models.Article, error)
	Truncate(article *models.Article, length int)
	SetAuthor(ctx context.Context, articleID, userID int64) (*models.Article, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// UserService defines the user store operations
type UserService interface {
	Create(ctx context.Context, in *models.CreateUserInput) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Services holds all service interfaces
type Services struct {
	Article ArticleService
	User    UserService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, v *validation.Validator, log zerolog.Logger) *Services {
	return &Services{
		Article: newArticleService(repos.Article, repos.User, v, log),
		User:    newUserService(repos.User, v, log),
	}
}

// Reset bulk-clears every article and user. Articles go first because they
// reference users.
func (s *Services) Reset(ctx context.Context) error {
	if err := s.Article.Clear(ctx); err != nil {
		return err
	}
	return s.User.Clear(ctx)
}
