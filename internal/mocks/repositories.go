package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.ArticleRepository = (*MockArticleRepository)(nil)
)

// MockUserRepository is an in-memory implementation of UserRepository
type MockUserRepository struct {
	mu     sync.Mutex
	nextID int64

	Users map[int64]*models.User
	// Err, when set, is returned by every method
	Err error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[int64]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextID++
	now := time.Now().UTC()
	user.ID = m.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.get(id), nil
}

func (m *MockUserRepository) get(id int64) *models.User {
	u, ok := m.Users[id]
	if !ok {
		return nil
	}
	out := *u
	return &out
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Users), nil
}

func (m *MockUserRepository) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Users = make(map[int64]*models.User)
	m.nextID = 0
	return nil
}

// MockArticleRepository is an in-memory implementation of ArticleRepository.
// Records are copied in and out so unsaved mutations never leak into storage.
type MockArticleRepository struct {
	mu     sync.Mutex
	nextID int64

	Articles map[int64]*models.Article
	// Users backs the author join; nil means no author is ever loaded
	Users *MockUserRepository
	// Err, when set, is returned by every method
	Err error
	// UpdateCalls counts persisted updates
	UpdateCalls int
}

func NewMockArticleRepository(users *MockUserRepository) *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[int64]*models.Article),
		Users:    users,
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	article.NormalizeTags()
	m.nextID++
	now := time.Now().UTC()
	article.ID = m.nextID
	article.CreatedAt = now
	article.UpdatedAt = now
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	return copyArticle(a), nil
}

func (m *MockArticleRepository) GetByIDWithAuthor(ctx context.Context, id int64) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	return m.withAuthor(a), nil
}

func (m *MockArticleRepository) GetByTitle(ctx context.Context, title string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, id := range m.sortedIDs() {
		if a := m.Articles[id]; a.Title == title {
			return m.withAuthor(a), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) List(ctx context.Context) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	articles := make([]*models.Article, 0, len(m.Articles))
	for _, id := range m.sortedIDs() {
		articles = append(articles, copyArticle(m.Articles[id]))
	}
	return articles, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	existing, ok := m.Articles[article.ID]
	if !ok {
		return models.ErrNotFound
	}
	m.UpdateCalls++
	article.NormalizeTags()
	article.UpdatedAt = time.Now().UTC()

	stored := copyArticle(article)
	stored.AuthorID = existing.AuthorID
	stored.CreatedAt = existing.CreatedAt
	m.Articles[article.ID] = stored
	return nil
}

func (m *MockArticleRepository) SetAuthor(ctx context.Context, articleID int64, authorID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.Articles[articleID]
	if !ok {
		return models.ErrNotFound
	}
	if authorID != nil && (m.Users == nil || m.userByID(*authorID) == nil) {
		return models.ErrNotFound
	}
	if authorID == nil {
		a.AuthorID = nil
	} else {
		id := *authorID
		a.AuthorID = &id
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Articles), nil
}

func (m *MockArticleRepository) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Articles = make(map[int64]*models.Article)
	m.nextID = 0
	return nil
}

func (m *MockArticleRepository) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.Articles))
	for id := range m.Articles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *MockArticleRepository) userByID(id int64) *models.User {
	m.Users.mu.Lock()
	defer m.Users.mu.Unlock()
	return m.Users.get(id)
}

func (m *MockArticleRepository) withAuthor(a *models.Article) *models.Article {
	out := copyArticle(a)
	if out.AuthorID != nil && m.Users != nil {
		out.Author = m.userByID(*out.AuthorID)
	}
	return out
}

func copyArticle(a *models.Article) *models.Article {
	out := *a
	out.Tags = append([]string{}, a.Tags...)
	if a.AuthorID != nil {
		id := *a.AuthorID
		out.AuthorID = &id
	}
	out.Author = nil
	return &out
}
