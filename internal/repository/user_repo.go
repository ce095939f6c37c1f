package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/blog-articles-api/internal/database"
	"github.com/blog-articles-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new user
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, created_at, updated_at)
		VALUES ($1, $2, $2)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Name, time.Now().UTC()).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return wrap("users.create", err)
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, name, created_at, updated_at FROM users WHERE id = $1`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("users.get", err)
	}

	return &user, nil
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, wrap("users.count", err)
}

// DeleteAll empties the users table. CASCADE also empties articles,
// which reference users.
func (r *userRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE users RESTART IDENTITY CASCADE")
	return wrap("users.delete_all", err)
}
