package answers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
)

// KnowledgeRepository persists the curated question/answer entries.
type KnowledgeRepository interface {
	WithTx(tx *gorm.DB) KnowledgeRepository
	ListActive(ctx context.Context) ([]models.KnowledgeEntry, error)
	IncrementUsage(ctx context.Context, entryID uuid.UUID) error
	Create(ctx context.Context, entry *models.KnowledgeEntry) (*models.KnowledgeEntry, error)
	Update(ctx context.Context, entry *models.KnowledgeEntry) (*models.KnowledgeEntry, error)
	Find(ctx context.Context, entryID uuid.UUID) (*models.KnowledgeEntry, error)
}

type knowledgeRepositoryImpl struct {
	db *gorm.DB
}

// NewKnowledgeRepository returns a repository bound to the provided database.
func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepositoryImpl{db: db}
}

func (r *knowledgeRepositoryImpl) WithTx(tx *gorm.DB) KnowledgeRepository {
	if tx == nil {
		return r
	}
	return &knowledgeRepositoryImpl{db: tx}
}

func (r *knowledgeRepositoryImpl) ListActive(ctx context.Context) ([]models.KnowledgeEntry, error) {
	var entries []models.KnowledgeEntry
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("usage_count DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// IncrementUsage bumps the match counter. Best effort: lost updates
// under concurrency are acceptable.
func (r *knowledgeRepositoryImpl) IncrementUsage(ctx context.Context, entryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.KnowledgeEntry{}).
		Where("id = ?", entryID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (r *knowledgeRepositoryImpl) Create(ctx context.Context, entry *models.KnowledgeEntry) (*models.KnowledgeEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *knowledgeRepositoryImpl) Update(ctx context.Context, entry *models.KnowledgeEntry) (*models.KnowledgeEntry, error) {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *knowledgeRepositoryImpl) Find(ctx context.Context, entryID uuid.UUID) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
