package repository

import (
	"context"

	"sudonet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleResult reports the mark state after a toggle and the counter read before it.
type ToggleResult struct {
	Marked   bool
	Previous int
}

// StreetCredRepository manages reputation marks and the posts.street_creds_count counter.
type StreetCredRepository interface {
	Exists(ctx context.Context, postID, requesterID string) (bool, error)
	Toggle(ctx context.Context, postID, requesterID string) (ToggleResult, error)
	Count(ctx context.Context, postID string) (int, error)
}

type streetCredRepository struct {
	db *gorm.DB
}

func NewStreetCredRepository(db *gorm.DB) StreetCredRepository {
	return &streetCredRepository{db: db}
}

func (r *streetCredRepository) Exists(ctx context.Context, postID, requesterID string) (bool, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return false, err
	}
	var n int64
	err = tx.Model(&models.StreetCred{}).
		Where("post_id = ? AND ip_address = ?", postID, requesterID).
		Count(&n).Error
	return n > 0, err
}

// Toggle removes the requester's mark when present and adds it otherwise.
// The unique (post_id, ip_address) index keeps concurrent toggles from
// producing a second mark; the counter only moves when a row actually changed.
func (r *streetCredRepository) Toggle(ctx context.Context, postID, requesterID string) (ToggleResult, error) {
	var result ToggleResult
	db, err := session(ctx, r.db)
	if err != nil {
		return result, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "street_creds_count").Where("id = ?", postID).First(&post).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Post", postID)
			}
			return err
		}
		result.Previous = post.StreetCredsCount

		del := tx.Where("post_id = ? AND ip_address = ?", postID, requesterID).Delete(&models.StreetCred{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			result.Marked = false
			return tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("street_creds_count", decrementFloor("street_creds_count")).Error
		}

		mark := &models.StreetCred{PostID: postID, RequesterID: requesterID}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(mark)
		if ins.Error != nil {
			return ins.Error
		}
		result.Marked = true
		if ins.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("street_creds_count", gorm.Expr("street_creds_count + 1")).Error
	})
	return result, err
}

func (r *streetCredRepository) Count(ctx context.Context, postID string) (int, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return 0, err
	}
	var post models.Post
	if err := tx.Select("id", "street_creds_count").Where("id = ?", postID).First(&post).Error; err != nil {
		if isNotFound(err) {
			return 0, models.NewNotFoundError("Post", postID)
		}
		return 0, err
	}
	return post.StreetCredsCount, nil
}
