package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a bulletin-board entry. Counters are owned by the repository layer.
type Post struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name             *string   `gorm:"type:varchar(100);index" json:"name"`
	Title            string    `gorm:"type:varchar(300);not null" json:"title"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	ImageURL         *string   `gorm:"type:text" json:"image_url"`
	StreetCredsCount int       `gorm:"not null;default:0" json:"street_creds_count"`
	CommentsCount    int       `gorm:"not null;default:0" json:"comments_count"`
	ViewsCount       int       `gorm:"not null;default:0" json:"views_count"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Hydrated from the author's public profile when one exists.
	AuthorArchetype *string `gorm:"-" json:"author_archetype,omitempty"`
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TrendingScore is the equal-weight sum of the three engagement counters.
func (p *Post) TrendingScore() int {
	return p.StreetCredsCount + p.CommentsCount + p.ViewsCount
}

// AuthorName returns the display handle, falling back to "Anonymous".
func (p *Post) AuthorName() string {
	if p.Name == nil || *p.Name == "" {
		return "Anonymous"
	}
	return *p.Name
}

// Comment is an immutable reply to a post.
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;index" json:"post_id"`
	Name      *string   `gorm:"type:varchar(100)" json:"name"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// StreetCred is a reputation mark. RequesterID is an anonymous fingerprint, not a user id.
type StreetCred struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PostID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_street_creds_post_requester" json:"post_id"`
	RequesterID string    `gorm:"column:ip_address;type:varchar(64);not null;uniqueIndex:idx_street_creds_post_requester" json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
}

func (StreetCred) TableName() string {
	return "street_creds"
}

func (s *StreetCred) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
