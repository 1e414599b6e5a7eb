package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS product_categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  icon_emoji TEXT NOT NULL DEFAULT '',
  display_rank INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  unit_price INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	locations := `
CREATE TABLE IF NOT EXISTS pickup_locations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT NOT NULL,
  neighborhood TEXT NOT NULL DEFAULT '',
  display_rank INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{categories, products, locations} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM products")
		db.Exec("DELETE FROM product_categories")
		db.Exec("DELETE FROM pickup_locations")
	})
	return db
}

func mustCreateCategory(t *testing.T, db *gorm.DB, name string, rank int, active bool) *models.ProductCategory {
	t.Helper()
	category := &models.ProductCategory{
		ID:          uuid.New(),
		Name:        name,
		IconEmoji:   "🥐",
		DisplayRank: rank,
		IsActive:    active,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, db.Create(category).Error)
	if !active {
		// gorm skips zero-value fields with a default tag, so force the column.
		require.NoError(t, db.Model(category).Update("is_active", false).Error)
	}
	return category
}

func mustCreateProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name string, price int64, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       name,
		UnitPrice:  price,
		IsActive:   active,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, db.Create(product).Error)
	if !active {
		require.NoError(t, db.Model(product).Update("is_active", false).Error)
	}
	return product
}

func TestListActiveCategoriesOrdersByRank(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	mustCreateCategory(t, db, "Tortas", 2, true)
	mustCreateCategory(t, db, "Hojaldres", 1, true)
	mustCreateCategory(t, db, "Descontinuados", 0, false)

	categories, err := repo.ListActiveCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Hojaldres", categories[0].Name)
	assert.Equal(t, "Tortas", categories[1].Name)
}

func TestListActiveProductsByCategory(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	hojaldres := mustCreateCategory(t, db, "Hojaldres", 1, true)
	tortas := mustCreateCategory(t, db, "Tortas", 2, true)

	mustCreateProduct(t, db, hojaldres.ID, "Milhoja", 5000, true)
	mustCreateProduct(t, db, hojaldres.ID, "Palito de queso", 2500, true)
	mustCreateProduct(t, db, hojaldres.ID, "Retirado", 1000, false)
	mustCreateProduct(t, db, tortas.ID, "Torta de milo", 48000, true)

	products, err := repo.ListActiveProductsByCategory(context.Background(), hojaldres.ID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Milhoja", products[0].Name)
}

func TestServiceProductNotFound(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.Product(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestServiceProductHidesInactive(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	category := mustCreateCategory(t, db, "Hojaldres", 1, true)
	retired := mustCreateProduct(t, db, category.ID, "Retirado", 1000, false)

	_, err = svc.Product(context.Background(), retired.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestServiceProductsUnknownCategory(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.Products(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Products(context.Background(), uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestListActivePickupLocations(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	for i, loc := range []models.PickupLocation{
		{ID: uuid.New(), Name: "Norte", Address: "Cra 45 # 90-12", Neighborhood: "Laureles", DisplayRank: 2, IsActive: true},
		{ID: uuid.New(), Name: "Centro", Address: "Calle 10 # 5-20", Neighborhood: "Centro", DisplayRank: 1, IsActive: true},
		{ID: uuid.New(), Name: "Cerrado", Address: "Calle 1", Neighborhood: "Sur", DisplayRank: 3, IsActive: false},
	} {
		loc.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		// gorm rewrites zero-value fields with a default tag during Create,
		// so remember the intended flag and force the column afterwards.
		active := loc.IsActive
		require.NoError(t, db.Create(&loc).Error)
		if !active {
			require.NoError(t, db.Model(&loc).Update("is_active", false).Error)
		}
	}

	locations, err := repo.ListActivePickupLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "Centro", locations[0].Name)
}
