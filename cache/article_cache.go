package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"articles-api/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const listKeyPrefix = "articles:list"

// ArticleKey is the per-entity cache key.
func ArticleKey(id string) string {
	return "article:" + id
}

// ListKey derives a deterministic key from normalized list parameters. The
// segment order is fixed, so two logically identical queries always map to the
// same key and any differing parameter produces a different one.
func ListKey(p models.ArticleListParams) string {
	parts := []string{
		listKeyPrefix,
		fmt.Sprintf("page:%d", p.Page),
		fmt.Sprintf("limit:%d", p.Limit),
		fmt.Sprintf("sort:%s:%s", p.SortBy, p.SortOrder),
	}
	if p.AuthorID != "" {
		parts = append(parts, "author:"+p.AuthorID)
	}
	if !p.PublishedFrom.IsZero() {
		parts = append(parts, "from:"+p.PublishedFrom.UTC().Format(time.RFC3339))
	}
	if !p.PublishedTo.IsZero() {
		parts = append(parts, "to:"+p.PublishedTo.UTC().Format(time.RFC3339))
	}
	return strings.Join(parts, ":")
}

// ArticleCache is a Redis-backed read-through cache for single articles and
// assembled list pages. Entries are advisory snapshots, never the source of
// truth; every operation fails open, so a cache outage degrades to querying
// the database on each request.
type ArticleCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewArticleCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *ArticleCache {
	return &ArticleCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "cache").Logger(),
	}
}

func (c *ArticleCache) GetArticle(ctx context.Context, id string) (*models.Article, bool) {
	val, err := c.rdb.Get(ctx, ArticleKey(id)).Bytes()
	if err == redis.Nil {
		c.log.Debug().Str("key", ArticleKey(id)).Msg("cache miss")
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", ArticleKey(id)).Msg("cache read failed, falling through to store")
		return nil, false
	}

	var article models.Article
	if err := json.Unmarshal(val, &article); err != nil {
		c.log.Warn().Err(err).Str("key", ArticleKey(id)).Msg("corrupt cache entry")
		return nil, false
	}

	c.log.Debug().Str("key", ArticleKey(id)).Msg("cache hit")
	return &article, true
}

func (c *ArticleCache) SetArticle(ctx context.Context, article *models.Article) {
	c.set(ctx, ArticleKey(article.ID), article)
}

func (c *ArticleCache) GetList(ctx context.Context, key string) (*models.ArticleList, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.log.Debug().Str("key", key).Msg("cache miss")
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling through to store")
		return nil, false
	}

	var list models.ArticleList
	if err := json.Unmarshal(val, &list); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("corrupt cache entry")
		return nil, false
	}

	c.log.Debug().Str("key", key).Msg("cache hit")
	return &list, true
}

func (c *ArticleCache) SetList(ctx context.Context, key string, list *models.ArticleList) {
	c.set(ctx, key, list)
}

// InvalidateArticle drops the per-entity entry for id.
func (c *ArticleCache) InvalidateArticle(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, ArticleKey(id)).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", ArticleKey(id)).Msg("cache invalidation failed")
	}
}

// InvalidateLists removes every cached list page. Any mutation can change the
// membership, ordering or total of any list, so all of them go; per-entity
// entries are left alone.
func (c *ArticleCache) InvalidateLists(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, listKeyPrefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", iter.Val()).Msg("cache invalidation failed")
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache list scan failed")
	}
}

func (c *ArticleCache) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
