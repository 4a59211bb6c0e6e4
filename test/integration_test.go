package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"articles-api/cache"
	"articles-api/config"
	"articles-api/handlers"
	"articles-api/helper"
	"articles-api/models"
	"articles-api/repositories"
	"articles-api/services"
)

// IntegrationTestSuite exercises the full HTTP surface against a real
// Postgres database and a miniredis-backed cache. Set TEST_DATABASE_DSN to
// run it, e.g.:
//
//	TEST_DATABASE_DSN="host=localhost port=5432 user=postgres password=postgres dbname=articles_test sslmode=disable" go test ./test/
type IntegrationTestSuite struct {
	suite.Suite
	db     *gorm.DB
	mr     *miniredis.Miniredis
	router *gin.Engine
}

type authEnvelope struct {
	Code        int                 `json:"code"`
	CodeType    string              `json:"code_type"`
	CodeMessage string              `json:"code_message"`
	Data        models.AuthResponse `json:"data"`
}

func (suite *IntegrationTestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		suite.T().Skip("TEST_DATABASE_DSN not set, skipping integration tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		suite.T().Fatal("Failed to connect to test database:", err)
	}
	suite.db = db

	if err := config.RunMigrations(db, "../migrations", zerolog.Nop()); err != nil {
		suite.T().Fatal("Failed to run migrations:", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		suite.T().Fatal("Failed to start miniredis:", err)
	}
	suite.mr = mr

	suite.setupRouter()
}

func (suite *IntegrationTestSuite) setupRouter() {
	gin.SetMode(gin.TestMode)

	jwtCfg := config.JWTConfig{Secret: []byte("test-secret"), Expiration: time.Hour}
	rdb := redis.NewClient(&redis.Options{Addr: suite.mr.Addr()})

	userRepo := repositories.NewUserRepository(suite.db)
	articleRepo := repositories.NewArticleRepository(suite.db)
	articleCache := cache.NewArticleCache(rdb, 5*time.Minute, zerolog.Nop())

	authService := services.NewAuthService(userRepo, jwtCfg)
	articleService := services.NewArticleService(articleRepo, articleCache, zerolog.Nop())

	httpHelper := helper.NewHTTPHelper()
	authHandler := handlers.NewAuthHandler(authService, httpHelper)
	articleHandler := handlers.NewArticleHandler(articleService, httpHelper)

	suite.router = handlers.NewRouter(authHandler, articleHandler, jwtCfg.Secret)
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	if suite.mr != nil {
		suite.mr.Close()
	}
	if suite.db != nil {
		suite.db.Exec("DROP TABLE IF EXISTS articles")
		suite.db.Exec("DROP TABLE IF EXISTS users")
		suite.db.Exec("DROP TABLE IF EXISTS schema_migrations")
	}
}

func (suite *IntegrationTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE articles RESTART IDENTITY CASCADE")
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")
	suite.mr.FlushAll()
}

func (suite *IntegrationTestSuite) request(method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		suite.NoError(err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *IntegrationTestSuite) registerUser(email string) (string, string) {
	w := suite.request(http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{
		Email:    email,
		Password: "password123",
	}, "")
	suite.Equal(http.StatusOK, w.Code)

	var resp authEnvelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.NotEmpty(resp.Data.Token)

	return resp.Data.Token, resp.Data.User.ID
}

func (suite *IntegrationTestSuite) TestAuthFlow() {
	token, _ := suite.registerUser("auth@example.com")
	suite.NotEmpty(token)

	// Duplicate registration conflicts.
	w := suite.request(http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{
		Email:    "auth@example.com",
		Password: "password123",
	}, "")
	suite.Equal(http.StatusConflict, w.Code)

	// Login works with the right password.
	w = suite.request(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Email:    "auth@example.com",
		Password: "password123",
	}, "")
	suite.Equal(http.StatusOK, w.Code)

	// Unknown email and wrong password fail identically.
	wrong := suite.request(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Email:    "auth@example.com",
		Password: "wrong",
	}, "")
	unknown := suite.request(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	}, "")
	suite.Equal(http.StatusUnauthorized, wrong.Code)
	suite.Equal(http.StatusUnauthorized, unknown.Code)
	suite.JSONEq(wrong.Body.String(), unknown.Body.String())
}

func (suite *IntegrationTestSuite) TestProfile() {
	token, userID := suite.registerUser("profile@example.com")

	w := suite.request(http.MethodGet, "/api/v1/profile", nil, token)
	suite.Equal(http.StatusOK, w.Code)

	var resp struct {
		Data models.User `json:"data"`
	}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(userID, resp.Data.ID)
	suite.Equal("profile@example.com", resp.Data.Email)

	w = suite.request(http.MethodGet, "/api/v1/profile", nil, "")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *IntegrationTestSuite) TestArticleLifecycle() {
	tokenU1, userU1 := suite.registerUser("u1@example.com")
	tokenU2, _ := suite.registerUser("u2@example.com")

	// Create as U1.
	w := suite.request(http.MethodPost, "/api/v1/articles", models.CreateArticleRequest{
		Title:   "A",
		Content: "B",
	}, tokenU1)
	suite.Equal(http.StatusCreated, w.Code)

	var created models.Article
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &created))
	suite.Equal(userU1, created.AuthorID)
	suite.Nil(created.PublishedAt)

	// Read it back, twice so the second hit comes from cache.
	for i := 0; i < 2; i++ {
		w = suite.request(http.MethodGet, "/api/v1/articles/"+created.ID, nil, "")
		suite.Equal(http.StatusOK, w.Code)

		var got models.Article
		suite.NoError(json.Unmarshal(w.Body.Bytes(), &got))
		suite.Equal("A", got.Title)
		suite.Equal("B", got.Content)
		suite.Equal(userU1, got.AuthorID)
	}

	// U2 cannot update it.
	title := "A2"
	w = suite.request(http.MethodPatch, "/api/v1/articles/"+created.ID, models.UpdateArticleRequest{Title: &title}, tokenU2)
	suite.Equal(http.StatusForbidden, w.Code)

	// U1 patches the title, content survives.
	w = suite.request(http.MethodPatch, "/api/v1/articles/"+created.ID, models.UpdateArticleRequest{Title: &title}, tokenU1)
	suite.Equal(http.StatusOK, w.Code)

	var updated models.Article
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Equal("A2", updated.Title)
	suite.Equal("B", updated.Content)
	suite.True(updated.UpdatedAt.After(created.UpdatedAt))

	// The fresh read reflects the patch, not the old cache entry.
	w = suite.request(http.MethodGet, "/api/v1/articles/"+created.ID, nil, "")
	suite.Equal(http.StatusOK, w.Code)
	var fresh models.Article
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &fresh))
	suite.Equal("A2", fresh.Title)

	// U2 cannot delete, U1 can.
	w = suite.request(http.MethodDelete, "/api/v1/articles/"+created.ID, nil, tokenU2)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, "/api/v1/articles/"+created.ID, nil, tokenU1)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/articles/"+created.ID, nil, "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *IntegrationTestSuite) TestListPagination() {
	token, _ := suite.registerUser("lister@example.com")

	for i := 0; i < 25; i++ {
		w := suite.request(http.MethodPost, "/api/v1/articles", models.CreateArticleRequest{
			Title:   fmt.Sprintf("article %d", i),
			Content: "content",
		}, token)
		suite.Equal(http.StatusCreated, w.Code)
	}

	w := suite.request(http.MethodGet, "/api/v1/articles?page=1&limit=10", nil, "")
	suite.Equal(http.StatusOK, w.Code)

	var list models.ArticleList
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &list))
	suite.Len(list.Data, 10)
	suite.Equal(int64(25), list.Meta.Total)
	suite.Equal(1, list.Meta.Page)
	suite.Equal(10, list.Meta.Limit)
	suite.Equal(3, list.Meta.TotalPages)
}

func (suite *IntegrationTestSuite) TestListValidation() {
	w := suite.request(http.MethodGet, "/api/v1/articles?limit=500", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/articles?sort_by=password_hash", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestInvalidArticleID() {
	w := suite.request(http.MethodGet, "/api/v1/articles/not-a-uuid", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestMutationsRequireAuth() {
	w := suite.request(http.MethodPost, "/api/v1/articles", models.CreateArticleRequest{
		Title:   "nope",
		Content: "nope",
	}, "")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
