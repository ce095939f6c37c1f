package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blog-articles-api/internal/api"
	"github.com/blog-articles-api/internal/config"
	"github.com/blog-articles-api/internal/mocks"
	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/repository"
	"github.com/blog-articles-api/internal/service"
	"github.com/blog-articles-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

type fakePool struct{ fakeHealth }

func (fakePool) Stats() sql.DBStats { return sql.DBStats{OpenConnections: 3, InUse: 1, Idle: 2} }

type testEnv struct {
	router   *gin.Engine
	services *service.Services
	articles *mocks.MockArticleRepository
	users    *mocks.MockUserRepository
}

func setupTestRouter(health api.HealthChecker) *testEnv {
	return setupTestRouterWith(health, config.ServerConfig{}, zerolog.Nop())
}

func setupTestRouterWith(health api.HealthChecker, cfg config.ServerConfig, log zerolog.Logger) *testEnv {
	gin.SetMode(gin.TestMode)

	users := mocks.NewMockUserRepository()
	articles := mocks.NewMockArticleRepository(users)
	repos := &repository.Repositories{User: users, Article: articles}
	services := service.NewServices(repos, validation.NewValidator(), log)

	return &testEnv{
		router:   api.NewRouter(services, health, cfg, log),
		services: services,
		articles: articles,
		users:    users,
	}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createArticle(t *testing.T, title, content string, tags []string) int64 {
	t.Helper()
	w := e.do("POST", "/articles", map[string]interface{}{"title": title, "content": content, "tags": tags})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Article struct {
			ID int64 `json:"id"`
		} `json:"article"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Article.ID
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(fakeHealth{})

	w := env.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeMap(t, w)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "blog-articles-api", response["service"])
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	env := setupTestRouter(fakeHealth{err: errors.New("connection refused")})

	w := env.do("GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decodeMap(t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(nil)
	env.createArticle(t, "Test Article", "Test body", nil)
	env.createArticle(t, "Another Test Article", "Another test body", nil)

	w := env.do("GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeMap(t, w)
	db := response["database"].(map[string]interface{})
	assert.Equal(t, float64(2), db["articles"])
	assert.Equal(t, float64(0), db["users"])
	assert.NotContains(t, response, "pool", "pool stats need a stats provider")
}

func TestMetricsEndpoint_PoolStats(t *testing.T) {
	env := setupTestRouter(fakePool{})

	w := env.do("GET", "/metrics", nil)
	pool, ok := decodeMap(t, w)["pool"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	assert.Equal(t, float64(3), pool["open_connections"])
	assert.Equal(t, float64(2), pool["idle"])
}

func TestListArticles(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("GET", "/articles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	env.createArticle(t, "Test Article", "Test body", nil)
	env.createArticle(t, "Another Test Article", "Another test body", nil)

	w = env.do("GET", "/articles", nil)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Test body", list[0]["content"])
	assert.Equal(t, "Another test body", list[1]["content"])
}

func TestListArticles_PersistenceError(t *testing.T) {
	env := setupTestRouter(nil)
	env.articles.Err = &models.PersistenceError{Op: "article.list", Err: errors.New("boom")}

	w := env.do("GET", "/articles", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestGetArticle(t *testing.T) {
	env := setupTestRouter(nil)
	id := env.createArticle(t, "Coconuts", "A full-sized coconut weighs about 1.44 kg (3.2 lb).", []string{"tag1", "tag2", "tag3"})

	w := env.do("GET", fmt.Sprintf("/articles/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	article := decodeMap(t, w)
	assert.Equal(t, "Coconuts", article["title"])
	assert.Equal(t, "A full-sized coconut we...", article["snippet"])
	assert.Equal(t, "tag1, tag2, tag3", article["tags"])
	assert.Equal(t, float64(0), article["version"])
}

func TestGetArticle_NotFound(t *testing.T) {
	env := setupTestRouter(nil)

	for _, path := range []string{"/articles/76142896", "/articles/abc", "/articles/1.5"} {
		w := env.do("GET", path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Zero(t, w.Body.Len(), path)
	}
}

func TestCreateArticle(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("POST", "/articles", map[string]string{
		"title":   "Migratory Birds",
		"content": "The South African cliff swallow (Petrochelidon spilodera)",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	response := decodeMap(t, w)
	assert.Equal(t, "Created successfully", response["message"])
	article := response["article"].(map[string]interface{})
	assert.Equal(t, "The South African cliff...", article["snippet"])
	assert.Equal(t, "", article["tags"])
}

func TestCreateArticle_Invalid(t *testing.T) {
	env := setupTestRouter(nil)

	bodies := []interface{}{
		map[string]string{"title": "Este articulo no debería ser permitido"},
		map[string]string{"title": "", "content": "body"},
		map[string]string{"title": "   ", "content": "body"},
		`{"title": "t", "content": null}`,
		`{"title": "broken"`,
	}
	for i, body := range bodies {
		w := env.do("POST", "/articles", body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, "case %d", i)
	}

	count, err := env.services.Article.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateArticle(t *testing.T) {
	env := setupTestRouter(nil)
	id := env.createArticle(t, "Final Article", "You can do it!", nil)

	w := env.do("PUT", fmt.Sprintf("/articles/%d", id), map[string]string{"title": "Awesome PUT-Updated Article"})
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeMap(t, w)
	assert.Equal(t, "Updated successfully", response["message"])
	article := response["article"].(map[string]interface{})
	assert.Equal(t, "Awesome PUT-Updated Article", article["title"])
	assert.Equal(t, "You can do it!", article["content"], "untouched fields are kept")
	assert.Equal(t, float64(1), article["version"])

	w = env.do("GET", fmt.Sprintf("/articles/%d", id), nil)
	assert.Equal(t, "Awesome PUT-Updated Article", decodeMap(t, w)["title"])
}

func TestUpdateArticle_Errors(t *testing.T) {
	env := setupTestRouter(nil)
	id := env.createArticle(t, "Final Article", "You can do it!", nil)

	w := env.do("PUT", "/articles/999", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("PUT", fmt.Sprintf("/articles/%d", id), map[string]string{"title": ""})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = env.do("GET", fmt.Sprintf("/articles/%d", id), nil)
	assert.Equal(t, float64(0), decodeMap(t, w)["version"], "failed update must not bump version")
}

func TestUpdateArticle_NullRequiredField(t *testing.T) {
	env := setupTestRouter(nil)
	id := env.createArticle(t, "X", "Y", nil)
	path := fmt.Sprintf("/articles/%d", id)

	for _, body := range []string{`{"content": null}`, `{"title": null}`, `{"title": "Z", "content": null}`} {
		w := env.do("PUT", path, body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		assert.Zero(t, w.Body.Len(), body)
	}

	stored := decodeMap(t, env.do("GET", path, nil))
	assert.Equal(t, "X", stored["title"])
	assert.Equal(t, "Y", stored["content"])
	assert.Equal(t, float64(0), stored["version"])
	assert.Zero(t, env.articles.UpdateCalls)

	w := env.do("PUT", path, `{"tags": null}`)
	assert.Equal(t, http.StatusOK, w.Code, "tags may be cleared with null")
}

func TestSetArticleAuthor(t *testing.T) {
	env := setupTestRouter(nil)
	articleID := env.createArticle(t, "Blue Wizards", "They are two of the five Wizards (or Istari)", nil)

	w := env.do("POST", "/users", map[string]string{"name": "Alatar the Blue"})
	require.Equal(t, http.StatusCreated, w.Code)
	user := decodeMap(t, w)["user"].(map[string]interface{})
	userID := int64(user["id"].(float64))

	w = env.do("PUT", fmt.Sprintf("/articles/%d/author", articleID), map[string]int64{"userId": userID})
	require.Equal(t, http.StatusOK, w.Code)
	article := decodeMap(t, w)["article"].(map[string]interface{})
	author, ok := article["author"].(map[string]interface{})
	require.True(t, ok, "expected author in response")
	assert.Equal(t, "Alatar the Blue", author["name"])

	plain := decodeMap(t, env.do("GET", fmt.Sprintf("/articles/%d", articleID), nil))
	assert.NotContains(t, plain, "author", "author is only loaded on request")
	assert.Equal(t, float64(userID), plain["authorId"])

	eager := decodeMap(t, env.do("GET", fmt.Sprintf("/articles/%d?include=author", articleID), nil))
	assert.Contains(t, eager, "author")

	w = env.do("PUT", fmt.Sprintf("/articles/%d/author", articleID), map[string]int64{"userId": 4242})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("PUT", "/articles/4242/author", map[string]int64{"userId": userID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsers(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("POST", "/users", map[string]string{"name": ""})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = env.do("POST", "/users", map[string]string{"name": "Peter"})
	response := decodeMap(t, w)
	assert.Equal(t, "Created successfully", response["message"])
	id := int64(response["user"].(map[string]interface{})["id"].(float64))

	w = env.do("GET", fmt.Sprintf("/users/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Peter", decodeMap(t, w)["name"])

	w = env.do("GET", "/users/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDAndCORS(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("GET", "/articles", nil)
	assert.NotEmpty(t, w.Header().Get(api.RequestIDHeader))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest("GET", "/articles", nil)
	req.Header.Set(api.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(api.RequestIDHeader))

	w = env.do("OPTIONS", "/articles", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, PUT, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, api.RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSConfiguredOrigin(t *testing.T) {
	env := setupTestRouterWith(nil, config.ServerConfig{CORSAllowOrigin: "https://blog.example.com"}, zerolog.Nop())

	w := env.do("GET", "/articles", nil)
	assert.Equal(t, "https://blog.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestRequestLogUsesRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	env := setupTestRouterWith(nil, config.ServerConfig{}, zerolog.New(&buf))
	id := env.createArticle(t, "Coconuts", "etc.", nil)
	buf.Reset()

	req := httptest.NewRequest("GET", fmt.Sprintf("/articles/%d", id), nil)
	req.Header.Set(api.RequestIDHeader, "req-42")
	env.router.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "/articles/:id", line["route"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.Equal(t, "info", line["level"])

	buf.Reset()
	env.do("GET", "/nowhere", nil)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "unmatched", line["route"])
	assert.Equal(t, "warn", line["level"])
}
