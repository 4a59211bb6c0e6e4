package cache

import (
	"context"
	"testing"
	"time"

	"articles-api/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ArticleCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewArticleCache(rdb, 5*time.Minute, zerolog.Nop()), mr
}

func TestListKeyDeterministic(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := models.ArticleListParams{Page: 2, Limit: 20, SortBy: "title", SortOrder: "ASC", AuthorID: "u1", PublishedFrom: from}
	b := models.ArticleListParams{Page: 2, Limit: 20, SortBy: "title", SortOrder: "ASC", AuthorID: "u1", PublishedFrom: from}

	assert.Equal(t, ListKey(a), ListKey(b))
}

func TestListKeyDistinguishesParams(t *testing.T) {
	base := models.ArticleListParams{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "DESC"}
	keys := map[string]bool{ListKey(base): true}

	variants := []models.ArticleListParams{
		{Page: 2, Limit: 10, SortBy: "created_at", SortOrder: "DESC"},
		{Page: 1, Limit: 20, SortBy: "created_at", SortOrder: "DESC"},
		{Page: 1, Limit: 10, SortBy: "title", SortOrder: "DESC"},
		{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "ASC"},
		{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "DESC", AuthorID: "u1"},
		{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "DESC", PublishedTo: time.Now()},
	}
	for _, v := range variants {
		key := ListKey(v)
		assert.False(t, keys[key], "key collision for %+v", v)
		keys[key] = true
	}
}

func TestArticleRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	article := &models.Article{ID: "a1", Title: "T", Content: "C", AuthorID: "u1"}

	_, ok := c.GetArticle(ctx, "a1")
	assert.False(t, ok)

	c.SetArticle(ctx, article)

	got, ok := c.GetArticle(ctx, "a1")
	require.True(t, ok)
	assert.Equal(t, article.Title, got.Title)
	assert.Equal(t, article.AuthorID, got.AuthorID)

	// Entries must expire on their own even without explicit invalidation.
	ttl := mr.TTL(ArticleKey("a1"))
	assert.Equal(t, 5*time.Minute, ttl)

	c.InvalidateArticle(ctx, "a1")
	_, ok = c.GetArticle(ctx, "a1")
	assert.False(t, ok)
}

func TestListRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	params := models.ArticleListParams{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "DESC"}
	key := ListKey(params)

	list := &models.ArticleList{
		Data: []models.Article{{ID: "a1", Title: "T"}},
		Meta: models.ListMeta{Total: 1, Page: 1, Limit: 10, TotalPages: 1},
	}

	c.SetList(ctx, key, list)

	got, ok := c.GetList(ctx, key)
	require.True(t, ok)
	assert.Equal(t, list.Meta, got.Meta)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "a1", got.Data[0].ID)
}

func TestInvalidateListsLeavesArticleEntries(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	article := &models.Article{ID: "a1", Title: "T"}
	c.SetArticle(ctx, article)

	for _, params := range []models.ArticleListParams{
		{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "DESC"},
		{Page: 2, Limit: 10, SortBy: "created_at", SortOrder: "DESC"},
		{Page: 1, Limit: 10, SortBy: "title", SortOrder: "ASC"},
	} {
		c.SetList(ctx, ListKey(params), &models.ArticleList{Meta: models.ListMeta{Page: params.Page}})
	}

	c.InvalidateLists(ctx)

	for _, params := range []models.ArticleListParams{
		{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "DESC"},
		{Page: 2, Limit: 10, SortBy: "created_at", SortOrder: "DESC"},
		{Page: 1, Limit: 10, SortBy: "title", SortOrder: "ASC"},
	} {
		_, ok := c.GetList(ctx, ListKey(params))
		assert.False(t, ok)
	}

	_, ok := c.GetArticle(ctx, "a1")
	assert.True(t, ok)
}

func TestCacheFailOpen(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	mr.Close()

	// A dead cache degrades to misses, never errors.
	_, ok := c.GetArticle(ctx, "a1")
	assert.False(t, ok)
	c.SetArticle(ctx, &models.Article{ID: "a1"})
	c.InvalidateArticle(ctx, "a1")
	c.InvalidateLists(ctx)
}
