package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/shopfront-backend/internal/domain"
)

// AutoMigrateAll creates tables for every model and the indexes gorm tags
// cannot express. The index SQL is valid on postgres and sqlite.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := EnsureCatalogIndexes(db); err != nil {
		return err
	}
	if err := EnsureOrderIndexes(db); err != nil {
		return err
	}
	return nil
}

func EnsureCatalogIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_product_lower_name ON product (lower(name));`).Error; err != nil {
		return fmt.Errorf("create idx_product_lower_name: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_product_active_category
		ON product (category, created_at)
		WHERE deleted_at IS NULL AND is_active;
	`).Error; err != nil {
		return fmt.Errorf("create idx_product_active_category: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_product_sold ON product (sold);`).Error; err != nil {
		return fmt.Errorf("create idx_product_sold: %w", err)
	}
	return nil
}

func EnsureOrderIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_payment_txn_ref_nonempty
		ON orders (payment_txn_ref)
		WHERE payment_txn_ref <> '';
	`).Error; err != nil {
		return fmt.Errorf("create idx_orders_payment_txn_ref_nonempty: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_orders_awaiting_payment
		ON orders (created_at)
		WHERE payment_method = 'vnpay' AND status = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_orders_awaiting_payment: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_orders_user_created: %w", err)
	}
	return nil
}
