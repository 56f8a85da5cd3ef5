package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Banner struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string     `gorm:"not null;column:title" json:"title"`
	ImageURL string     `gorm:"column:image_url" json:"image_url"`
	LinkURL  string     `gorm:"column:link_url" json:"link_url"`
	Position int        `gorm:"not null;default:0;column:position;index" json:"position"`
	IsActive bool       `gorm:"not null;column:is_active" json:"is_active"`
	StartsAt *time.Time `gorm:"column:starts_at" json:"starts_at,omitempty"`
	EndsAt   *time.Time `gorm:"column:ends_at" json:"ends_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Banner) TableName() string { return "banner" }

func (b *Banner) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// VisibleAt reports whether the banner should be shown at t.
func (b *Banner) VisibleAt(t time.Time) bool {
	if b == nil || !b.IsActive {
		return false
	}
	if b.StartsAt != nil && t.Before(*b.StartsAt) {
		return false
	}
	if b.EndsAt != nil && !t.Before(*b.EndsAt) {
		return false
	}
	return true
}
