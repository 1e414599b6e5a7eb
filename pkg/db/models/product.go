package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductCategory groups catalog entries for menu navigation.
type ProductCategory struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	IconEmoji   string    `gorm:"column:icon_emoji;not null;default:''"`
	DisplayRank int       `gorm:"column:display_rank;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	Products    []Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Product represents a sellable catalog item. Prices are stored as
// whole Colombian pesos.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	UnitPrice   int64     `gorm:"column:unit_price;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
