package documents

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
)

func TestRenderWritesReceipt(t *testing.T) {
	dir := t.TempDir()
	renderer, err := NewRenderer(
		logger.New(logger.Options{ServiceName: "documents-test"}),
		config.DocumentsConfig{SpoolDir: dir},
		config.BusinessConfig{Name: "Casa Hojaldre", PaymentMethods: "Nequi o Daviplata", PaymentPhone: "3014170313"},
	)
	require.NoError(t, err)

	order := &models.Order{
		ID:              uuid.New(),
		Status:          enums.OrderStatusPending,
		Subtotal:        150000,
		Discount:        7500,
		DiscountPercent: 5,
		Total:           142500,
		Items: []models.OrderItem{
			{Name: "Milhoja", Quantity: 30, UnitPrice: 5000, Subtotal: 150000},
		},
	}
	customer := &models.Customer{Name: "María"}

	path, err := renderer.Render(context.Background(), order, customer)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(raw)

	assert.Contains(t, html, "Casa Hojaldre")
	assert.Contains(t, html, "María")
	assert.Contains(t, html, "Milhoja")
	assert.Contains(t, html, "$150.000")
	assert.Contains(t, html, "$142.500")
	assert.Contains(t, html, "Descuento (5%)")
	assert.Contains(t, html, "3014170313")
}

func TestRenderNilOrderFails(t *testing.T) {
	renderer, err := NewRenderer(
		logger.New(logger.Options{ServiceName: "documents-test"}),
		config.DocumentsConfig{SpoolDir: t.TempDir()},
		config.BusinessConfig{},
	)
	require.NoError(t, err)

	_, err = renderer.Render(context.Background(), nil, nil)
	assert.Error(t, err)
}
