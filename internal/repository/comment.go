package repository

import (
	"context"

	"sudonet/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the parent's comments_count in one transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	tx, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", comment.PostID)
		}
		return tx.Create(comment).Error
	})
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var comments []*models.Comment
	err = tx.Where("post_id = ?", postID).Order("created_at asc").Find(&comments).Error
	return comments, err
}
