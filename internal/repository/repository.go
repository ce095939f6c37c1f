package repository

import (
	"context"

	"github.com/blog-articles-api/internal/database"
	"github.com/blog-articles-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// ArticleRepository defines the interface for article data operations.
// Lookups return (nil, nil) when no row matches.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetByIDWithAuthor(ctx context.Context, id int64) (*models.Article, error)
	GetByTitle(ctx context.Context, title string) (*models.Article, error)
	List(ctx context.Context) ([]*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	SetAuthor(ctx context.Context, articleID int64, authorID *int64) error
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Article ArticleRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Article: NewArticleRepo(db),
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &models.PersistenceError{Op: op, Err: err}
}
