package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a chat user who has placed at least one order.
type Customer struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChatID    string     `gorm:"column:chat_id;not null;uniqueIndex"`
	Name      string     `gorm:"column:name;not null"`
	Phone     *string    `gorm:"column:phone"`
	Email     *string    `gorm:"column:email"`
	LastSeen  *time.Time `gorm:"column:last_seen"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
