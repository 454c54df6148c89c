package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryItem struct {
	ID                    int64           `gorm:"primaryKey"`
	InternalArticleNumber string          `gorm:"size:100;not null;uniqueIndex"`
	Title                 string          `gorm:"size:255;not null"`
	BrandAndPartNumber    string          `gorm:"size:255;not null"`
	Price                 decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Condition             int             `gorm:"not null"`
	Deposit               int             `gorm:"not null;default:0"`
	ShippingClass         int             `gorm:"not null;default:1"`
	DeliveryDays          int             `gorm:"not null;default:1"`
	Category              string          `gorm:"size:255;not null"`
	InStock               *bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}
