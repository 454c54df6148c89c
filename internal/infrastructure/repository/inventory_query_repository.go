package repository

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type InventoryQueryRepository struct {
	db *gorm.DB
}

func NewInventoryQueryRepository(db *gorm.DB) *InventoryQueryRepository {
	return &InventoryQueryRepository{db: db}
}

func (r *InventoryQueryRepository) GetByArticleNumber(ctx context.Context, articleNumber string, withDeleted bool) (*domain.InventoryItem, error) {
	var row models.InventoryItem

	query := r.db.WithContext(ctx)
	if withDeleted {
		query = query.Unscoped()
	}

	err := query.First(&row, "internal_article_number = ?", articleNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}

	item := toDomainItem(row)
	return &item, nil
}

func (r *InventoryQueryRepository) SoftDelete(ctx context.Context, articleNumber string) error {
	res := r.db.WithContext(ctx).
		Where("internal_article_number = ?", articleNumber).
		Delete(&models.InventoryItem{})
	if res.Error != nil {
		return fmt.Errorf("soft delete inventory item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Restore clears the soft delete marker. Restoring an active item is a no-op.
func (r *InventoryQueryRepository) Restore(ctx context.Context, articleNumber string) error {
	res := r.db.WithContext(ctx).Unscoped().
		Model(&models.InventoryItem{}).
		Where("internal_article_number = ? AND deleted_at IS NOT NULL", articleNumber).
		Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("restore inventory item: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("internal_article_number = ?", articleNumber).
		Count(&count).Error; err != nil {
		return fmt.Errorf("restore inventory item: %w", err)
	}
	if count == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func toDomainItem(row models.InventoryItem) domain.InventoryItem {
	item := domain.InventoryItem{
		InventoryRecord: domain.InventoryRecord{
			InternalArticleNumber: row.InternalArticleNumber,
			Title:                 row.Title,
			BrandAndPartNumber:    row.BrandAndPartNumber,
			Price:                 row.Price,
			Condition:             domain.Condition(row.Condition),
			Deposit:               row.Deposit,
			ShippingClass:         row.ShippingClass,
			DeliveryDays:          row.DeliveryDays,
			Category:              row.Category,
			InStock:               row.InStock,
		},
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.DeletedAt.Valid {
		deletedAt := row.DeletedAt.Time
		item.DeletedAt = &deletedAt
	}
	return item
}
