package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActiveCategories returns visible categories in display order.
func (r *Repository) ListActiveCategories(ctx context.Context) ([]models.ProductCategory, error) {
	var categories []models.ProductCategory
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_rank ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// ListActiveProductsByCategory returns a category's visible products.
func (r *Repository) ListActiveProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListActiveProducts returns every visible product across categories.
func (r *Repository) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindProduct loads one product by ID.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindCategory loads one category by ID.
func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.ProductCategory, error) {
	var category models.ProductCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListActivePickupLocations returns visible pickup points in display order.
func (r *Repository) ListActivePickupLocations(ctx context.Context) ([]models.PickupLocation, error) {
	var locations []models.PickupLocation
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_rank ASC, name ASC").
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}
