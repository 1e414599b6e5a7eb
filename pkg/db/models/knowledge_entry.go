package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// KnowledgeEntry is a curated question/answer pair matched by keyword
// before any generative fallback runs.
type KnowledgeEntry struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Question   string         `gorm:"column:question;not null"`
	Keywords   pq.StringArray `gorm:"column:keywords;type:text[];not null;default:ARRAY[]::text[]"`
	Answer     string         `gorm:"column:answer;not null"`
	Confidence float64        `gorm:"column:confidence;not null;default:1"`
	UsageCount int            `gorm:"column:usage_count;not null;default:0"`
	IsActive   bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
