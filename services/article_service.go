package services

import (
	"context"
	"errors"
	"math"

	"articles-api/cache"
	"articles-api/models"
	"articles-api/repositories"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ArticleService interface {
	CreateArticle(ctx context.Context, req models.CreateArticleRequest, authorID string) (*models.Article, error)
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	GetArticles(ctx context.Context, params models.ArticleListParams) (*models.ArticleList, error)
	UpdateArticle(ctx context.Context, id string, req models.UpdateArticleRequest, userID string) (*models.Article, error)
	DeleteArticle(ctx context.Context, id string, userID string) error
}

type articleService struct {
	articleRepo  repositories.ArticleRepository
	articleCache *cache.ArticleCache
	log          zerolog.Logger
}

func NewArticleService(articleRepo repositories.ArticleRepository, articleCache *cache.ArticleCache, log zerolog.Logger) ArticleService {
	return &articleService{
		articleRepo:  articleRepo,
		articleCache: articleCache,
		log:          log.With().Str("component", "article_service").Logger(),
	}
}

// CreateArticle persists a new article. The author always comes from the
// authenticated caller, never from the payload.
func (s *articleService) CreateArticle(ctx context.Context, req models.CreateArticleRequest, authorID string) (*models.Article, error) {
	article := &models.Article{
		Title:       req.Title,
		Content:     req.Content,
		AuthorID:    authorID,
		PublishedAt: req.PublishedAt,
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}

	// A new row can appear in any cached page, so every list entry goes.
	s.articleCache.InvalidateLists(ctx)

	return article, nil
}

// GetArticle serves from cache when possible and populates the cache on a miss.
func (s *articleService) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	if article, ok := s.articleCache.GetArticle(ctx, id); ok {
		return article, nil
	}

	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	s.articleCache.SetArticle(ctx, article)

	return article, nil
}

// GetArticles returns one filtered, sorted page plus pagination metadata,
// cached verbatim under the derived list key.
func (s *articleService) GetArticles(ctx context.Context, params models.ArticleListParams) (*models.ArticleList, error) {
	params.Normalize()
	key := cache.ListKey(params)

	if list, ok := s.articleCache.GetList(ctx, key); ok {
		return list, nil
	}

	articles, total, err := s.articleRepo.GetList(ctx, params)
	if err != nil {
		return nil, err
	}

	if articles == nil {
		articles = []models.Article{}
	}

	list := &models.ArticleList{
		Data: articles,
		Meta: models.ListMeta{
			Total:      total,
			Page:       params.Page,
			Limit:      params.Limit,
			TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
		},
	}

	s.articleCache.SetList(ctx, key, list)

	return list, nil
}

// UpdateArticle applies a partial patch after an ownership check. The check
// runs against the stored author on every call, never a prior read.
func (s *articleService) UpdateArticle(ctx context.Context, id string, req models.UpdateArticleRequest, userID string) (*models.Article, error) {
	article, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	if article.AuthorID != userID {
		return nil, models.ErrForbidden
	}

	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.PublishedAt != nil {
		article.PublishedAt = req.PublishedAt
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}

	s.articleCache.InvalidateArticle(ctx, id)
	s.articleCache.InvalidateLists(ctx)

	return article, nil
}

func (s *articleService) DeleteArticle(ctx context.Context, id string, userID string) error {
	article, err := s.GetArticle(ctx, id)
	if err != nil {
		return err
	}

	if article.AuthorID != userID {
		return models.ErrForbidden
	}

	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.articleCache.InvalidateArticle(ctx, id)
	s.articleCache.InvalidateLists(ctx)

	return nil
}
