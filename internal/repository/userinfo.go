package repository

import (
	"context"
	"time"

	"sudonet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserInfoRepository reads and writes public profiles.
type UserInfoRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.UserInfo, error)
	GetByUserID(ctx context.Context, userID string) (*models.UserInfo, error)
	CreateIfAbsent(ctx context.Context, info *models.UserInfo) (*models.UserInfo, bool, error)
	SearchPublic(ctx context.Context, query string, limit int) ([]*models.UserInfo, error)
	ListPublicByUsernames(ctx context.Context, usernames []string) ([]*models.UserInfo, error)
	ListPublicByUserIDs(ctx context.Context, userIDs []string) ([]*models.UserInfo, error)
	UpsertProcedure(ctx context.Context, info *models.UserInfo) error
	UpsertFallback(ctx context.Context, info *models.UserInfo) error
}

type userInfoRepository struct {
	db *gorm.DB
}

func NewUserInfoRepository(db *gorm.DB) UserInfoRepository {
	return &userInfoRepository{db: db}
}

func (r *userInfoRepository) GetByUsername(ctx context.Context, username string) (*models.UserInfo, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var info models.UserInfo
	if err := tx.Where("username = ?", username).Order("created_at ASC").First(&info).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Profile", username)
		}
		return nil, err
	}
	return &info, nil
}

func (r *userInfoRepository) GetByUserID(ctx context.Context, userID string) (*models.UserInfo, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var info models.UserInfo
	if err := tx.Where("user_id = ?", userID).First(&info).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, err
	}
	return &info, nil
}

// CreateIfAbsent inserts info unless its owner already has a profile, in which
// case the existing row is returned and created is false.
func (r *userInfoRepository) CreateIfAbsent(ctx context.Context, info *models.UserInfo) (*models.UserInfo, bool, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, false, err
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(info)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return info, true, nil
	}
	existing, err := r.GetByUserID(ctx, info.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *userInfoRepository) SearchPublic(ctx context.Context, query string, limit int) ([]*models.UserInfo, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	pattern := likePattern(query)
	q := tx.Where("is_public = ?", true).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(COALESCE(bio, '')) LIKE ? ESCAPE '\'`, pattern, pattern)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var profiles []*models.UserInfo
	err = q.Order("username ASC").Find(&profiles).Error
	return profiles, err
}

func (r *userInfoRepository) ListPublicByUsernames(ctx context.Context, usernames []string) ([]*models.UserInfo, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var profiles []*models.UserInfo
	err = tx.Where("username IN ? AND is_public = ?", usernames, true).Find(&profiles).Error
	return profiles, err
}

func (r *userInfoRepository) ListPublicByUserIDs(ctx context.Context, userIDs []string) ([]*models.UserInfo, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var profiles []*models.UserInfo
	err = tx.Where("user_id IN ? AND is_public = ?", userIDs, true).Find(&profiles).Error
	return profiles, err
}

// UpsertProcedure writes the profile through update_userinfo_profile.
// It fails on stores where the function was never created.
func (r *userInfoRepository) UpsertProcedure(ctx context.Context, info *models.UserInfo) error {
	tx, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	return tx.Exec(
		"SELECT update_userinfo_profile(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		info.UserID, info.Username, info.PhotoURL, info.Gender,
		info.Email, info.Phone, info.Bio, info.About,
		info.GithubURL, info.LinkedinURL, info.TwitterURL, info.InstagramURL, info.FacebookURL,
		info.AddressLine1, info.AddressLine2, info.City, info.State, info.Country,
		info.PostalCode, info.Archetype, info.IsPublic,
	).Error
}

// UpsertFallback selects the owner's row then updates it, or inserts a new one.
// A nil PhotoURL keeps the stored photo, matching the procedure.
func (r *userInfoRepository) UpsertFallback(ctx context.Context, info *models.UserInfo) error {
	db, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.UserInfo
		err := tx.Where("user_id = ?", info.UserID).First(&existing).Error
		if isNotFound(err) {
			return tx.Create(info).Error
		}
		if err != nil {
			return err
		}

		fields := map[string]any{
			"username":      info.Username,
			"gender":        info.Gender,
			"email":         info.Email,
			"phone":         info.Phone,
			"bio":           info.Bio,
			"about":         info.About,
			"github_url":    info.GithubURL,
			"linkedin_url":  info.LinkedinURL,
			"twitter_url":   info.TwitterURL,
			"instagram_url": info.InstagramURL,
			"facebook_url":  info.FacebookURL,
			"address_line1": info.AddressLine1,
			"address_line2": info.AddressLine2,
			"city":          info.City,
			"state":         info.State,
			"country":       info.Country,
			"postal_code":   info.PostalCode,
			"archetype":     info.Archetype,
			"is_public":     info.IsPublic,
			"updated_at":    time.Now(),
		}
		if info.PhotoURL != nil {
			fields["photo_url"] = info.PhotoURL
		}
		info.ID = existing.ID
		return tx.Model(&models.UserInfo{}).Where("id = ?", existing.ID).Updates(fields).Error
	})
}
