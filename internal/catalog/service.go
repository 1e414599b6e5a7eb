// Package catalog exposes the product categories, products and pickup
// locations the bot offers.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

// Service defines read operations over the catalog.
type Service interface {
	Categories(ctx context.Context) ([]models.ProductCategory, error)
	Products(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error)
	Product(ctx context.Context, id uuid.UUID) (*models.Product, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	ListActivePickupLocations(ctx context.Context) ([]models.PickupLocation, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Categories(ctx context.Context) ([]models.ProductCategory, error) {
	return s.repo.ListActiveCategories(ctx)
}

func (s *service) Products(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	if categoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if _, err := s.repo.FindCategory(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, err
	}
	return s.repo.ListActiveProductsByCategory(ctx, categoryID)
}

func (s *service) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) AllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListActiveProducts(ctx)
}

// ListActivePickupLocations mirrors the repository name so the service
// satisfies the preorder wizard's reader interface directly.
func (s *service) ListActivePickupLocations(ctx context.Context) ([]models.PickupLocation, error) {
	return s.repo.ListActivePickupLocations(ctx)
}
