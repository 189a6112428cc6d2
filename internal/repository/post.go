package repository

import (
	"context"
	"time"

	"sudonet/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero values mean no constraint.
type PostFilter struct {
	Since time.Time
	Limit int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Post, error)
	IncrementViews(ctx context.Context, id string) (*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	tx, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	post.StreetCredsCount, post.CommentsCount, post.ViewsCount = 0, 0, 0
	return tx.Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	q := tx.Model(&models.Post{})
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var posts []*models.Post
	err = q.Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	pattern := likePattern(query)
	q := tx.Where(
		`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(name, '')) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'`,
		pattern, pattern, pattern,
	)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var posts []*models.Post
	err = q.Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// IncrementViews bumps the view counter atomically and returns the updated row.
func (r *postRepository) IncrementViews(ctx context.Context, id string) (*models.Post, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var post models.Post
	err = tx.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("views_count", gorm.Expr("views_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return tx.Where("id = ?", id).First(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}
