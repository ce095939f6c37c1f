package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/blog-articles-api/internal/database"
	"github.com/blog-articles-api/internal/models"
	"github.com/lib/pq"
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

const articleColumns = `a.id, a.title, a.content, a.version, a.tags, a.author_id, a.created_at, a.updated_at`

// author columns come from a LEFT JOIN, so every one of them may be NULL
const authorColumns = `u.id, u.name, u.created_at, u.updated_at`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article and fills in its generated id and timestamps
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	article.NormalizeTags()
	now := time.Now().UTC()

	query := `
		INSERT INTO articles (title, content, version, tags, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		article.Title, article.Content, article.Version, pq.Array(article.Tags), article.AuthorID, now,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	return wrap("articles.create", err)
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a WHERE a.id = $1`

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("articles.get", err)
	}
	return article, nil
}

// GetByIDWithAuthor retrieves an article by ID with its author loaded
func (r *articleRepo) GetByIDWithAuthor(ctx context.Context, id int64) (*models.Article, error) {
	query := `
		SELECT ` + articleColumns + `, ` + authorColumns + `
		FROM articles a
		LEFT JOIN users u ON u.id = a.author_id
		WHERE a.id = $1
	`
	article, err := scanArticleWithAuthor(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("articles.get_with_author", err)
	}
	return article, nil
}

// GetByTitle retrieves the single article with exactly this title, author loaded.
// Duplicated titles resolve to the oldest article.
func (r *articleRepo) GetByTitle(ctx context.Context, title string) (*models.Article, error) {
	query := `
		SELECT ` + articleColumns + `, ` + authorColumns + `
		FROM articles a
		LEFT JOIN users u ON u.id = a.author_id
		WHERE a.title = $1
		ORDER BY a.id
		LIMIT 1
	`
	article, err := scanArticleWithAuthor(r.db.QueryRowContext(ctx, query, title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("articles.get_by_title", err)
	}
	return article, nil
}

// List returns every article in insertion order
func (r *articleRepo) List(ctx context.Context) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a ORDER BY a.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrap("articles.list", err)
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, wrap("articles.list", err)
		}
		articles = append(articles, article)
	}
	return articles, wrap("articles.list", rows.Err())
}

// Update writes the mutable fields of an article, including its version.
// Concurrent writers are not locked out: the last write wins.
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	article.NormalizeTags()

	query := `
		UPDATE articles
		SET title = $2, content = $3, version = $4, tags = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		article.ID, article.Title, article.Content, article.Version, pq.Array(article.Tags), time.Now().UTC(),
	).Scan(&article.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return wrap("articles.update", err)
}

// SetAuthor persists the author foreign key; a nil authorID clears it
func (r *articleRepo) SetAuthor(ctx context.Context, articleID int64, authorID *int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE articles SET author_id = $2, updated_at = $3 WHERE id = $1`,
		articleID, authorID, time.Now().UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return models.ErrNotFound
		}
		return wrap("articles.set_author", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return wrap("articles.set_author", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, wrap("articles.count", err)
}

// DeleteAll empties the articles table and resets its id sequence
func (r *articleRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE articles RESTART IDENTITY")
	return wrap("articles.delete_all", err)
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var authorID sql.NullInt64

	err := row.Scan(
		&article.ID, &article.Title, &article.Content, &article.Version,
		pq.Array(&article.Tags), &authorID, &article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if authorID.Valid {
		article.AuthorID = &authorID.Int64
	}
	article.NormalizeTags()
	return &article, nil
}

func scanArticleWithAuthor(row rowScanner) (*models.Article, error) {
	var article models.Article
	var authorID sql.NullInt64
	var userID sql.NullInt64
	var userName sql.NullString
	var userCreated, userUpdated sql.NullTime

	err := row.Scan(
		&article.ID, &article.Title, &article.Content, &article.Version,
		pq.Array(&article.Tags), &authorID, &article.CreatedAt, &article.UpdatedAt,
		&userID, &userName, &userCreated, &userUpdated,
	)
	if err != nil {
		return nil, err
	}

	if authorID.Valid {
		article.AuthorID = &authorID.Int64
	}
	if userID.Valid {
		article.Author = &models.User{
			ID:        userID.Int64,
			Name:      userName.String,
			CreatedAt: userCreated.Time,
			UpdatedAt: userUpdated.Time,
		}
	}
	article.NormalizeTags()
	return &article, nil
}
