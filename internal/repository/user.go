package repository

import (
	"context"

	"sudonet/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users. Lookups by
// credential work on digests only.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	ExistsByUsernameHash(ctx context.Context, usernameHash string) (bool, error)
	GetByCredentials(ctx context.Context, usernameHash, passwordHash string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListRecent(ctx context.Context, limit int) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	if err := tx.Create(user).Error; err != nil {
		if models.ClassifyStoreError(err) == models.StoreErrorUniqueViolation {
			return models.NewConflictError("Username already exists")
		}
		return err
	}
	return nil
}

func (r *userRepository) ExistsByUsernameHash(ctx context.Context, usernameHash string) (bool, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return false, err
	}
	var n int64
	err = tx.Model(&models.User{}).Where("username_hash = ?", usernameHash).Count(&n).Error
	return n > 0, err
}

// GetByCredentials returns nil, nil when no row matches both digests.
func (r *userRepository) GetByCredentials(ctx context.Context, usernameHash, passwordHash string) (*models.User, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = tx.Where("username_hash = ? AND password_hash = ?", usernameHash, passwordHash).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListRecent(ctx context.Context, limit int) ([]*models.User, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 8
	}
	var users []*models.User
	err = tx.Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}
