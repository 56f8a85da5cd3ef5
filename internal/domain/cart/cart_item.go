package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/domain/catalog"
)

type CartItem struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_user_product,priority:1" json:"user_id"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_user_product,priority:2;index" json:"product_id"`
	Product   *catalog.Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int              `gorm:"not null;column:quantity" json:"quantity"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_item" }

func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}
