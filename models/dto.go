package models

import "time"

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public-safe projection returned by auth endpoints.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type CreateArticleRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=255"`
	Content     string     `json:"content" binding:"required"`
	PublishedAt *time.Time `json:"published_at"`
}

// UpdateArticleRequest carries a partial patch. Nil fields are left untouched.
// The author is deliberately not part of the payload.
type UpdateArticleRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Content     *string    `json:"content" binding:"omitempty,min=1"`
	PublishedAt *time.Time `json:"published_at"`
}

const (
	SortOrderAsc  = "ASC"
	SortOrderDesc = "DESC"
)

type ArticleListParams struct {
	Page          int       `form:"page,default=1" validate:"min=1"`
	Limit         int       `form:"limit,default=10" validate:"min=1,max=100"`
	AuthorID      string    `form:"author_id" validate:"omitempty,uuid"`
	PublishedFrom time.Time `form:"published_from" time_format:"2006-01-02T15:04:05Z07:00"`
	PublishedTo   time.Time `form:"published_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string    `form:"sort_by,default=created_at" validate:"oneof=created_at updated_at title published_at"`
	SortOrder     string    `form:"sort_order,default=DESC" validate:"oneof=ASC DESC"`
}

// Normalize fills defaults for callers that build params directly, without
// going through gin's form binding.
func (p *ArticleListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	if p.SortOrder == "" {
		p.SortOrder = SortOrderDesc
	}
}

type ListMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type ArticleList struct {
	Data []Article `json:"data"`
	Meta ListMeta  `json:"meta"`
}
