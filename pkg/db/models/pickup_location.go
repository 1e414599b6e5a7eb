package models

import (
	"time"

	"github.com/google/uuid"
)

// PickupLocation is a store branch offered during preorder scheduling.
type PickupLocation struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Address      string    `gorm:"column:address;not null"`
	Neighborhood string    `gorm:"column:neighborhood;not null;default:''"`
	DisplayRank  int       `gorm:"column:display_rank;not null;default:0"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
