package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User holds only digests of the credentials; plaintext never reaches the store.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null;index" json:"name"`
	UsernameHash string    `gorm:"type:char(64);not null;uniqueIndex" json:"-"`
	PasswordHash string    `gorm:"type:char(64);not null" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Gender values accepted on a profile.
const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefer_not_to_say"
)

// ValidGender reports whether g is one of the accepted gender values.
func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// UserInfo is the public-facing profile owned by exactly one user.
type UserInfo struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	Username     string    `gorm:"type:varchar(100);not null;index" json:"username"`
	PhotoURL     *string   `gorm:"type:text" json:"photo_url"`
	Gender       *string   `gorm:"type:varchar(32)" json:"gender"`
	Email        *string   `gorm:"type:varchar(255)" json:"email"`
	Phone        *string   `gorm:"type:varchar(50)" json:"phone"`
	Bio          *string   `gorm:"type:text" json:"bio"`
	About        *string   `gorm:"type:text" json:"about"`
	GithubURL    *string   `gorm:"type:text" json:"github_url"`
	LinkedinURL  *string   `gorm:"type:text" json:"linkedin_url"`
	TwitterURL   *string   `gorm:"type:text" json:"twitter_url"`
	InstagramURL *string   `gorm:"type:text" json:"instagram_url"`
	FacebookURL  *string   `gorm:"type:text" json:"facebook_url"`
	AddressLine1 *string   `gorm:"type:text" json:"address_line1"`
	AddressLine2 *string   `gorm:"type:text" json:"address_line2"`
	City         *string   `gorm:"type:varchar(100)" json:"city"`
	State        *string   `gorm:"type:varchar(100)" json:"state"`
	Country      *string   `gorm:"type:varchar(100)" json:"country"`
	PostalCode   *string   `gorm:"type:varchar(20)" json:"postal_code"`
	Archetype    *string   `gorm:"type:varchar(32)" json:"archetype"`
	IsPublic     bool      `gorm:"not null" json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (UserInfo) TableName() string {
	return "userinfo"
}

func (u *UserInfo) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DevProfile pairs a user with their public profile for the developer roster.
type DevProfile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	PhotoURL  *string   `json:"photo_url"`
	Bio       *string   `json:"bio"`
	Archetype *string   `json:"archetype"`
	JoinedAt  time.Time `json:"joined_at"`
}
