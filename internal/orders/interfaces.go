package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
	"github.com/casahojaldre/chatbot-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error)
	CountActiveByChatID(ctx context.Context, chatID string) (int64, error)
	LatestByChatID(ctx context.Context, chatID string) (*models.Order, error)
}

// ListFilters narrows the admin order listing.
type ListFilters struct {
	Status *enums.OrderStatus
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// documentRenderer produces the order receipt document and returns its path.
type documentRenderer interface {
	Render(ctx context.Context, order *models.Order, customer *models.Customer) (string, error)
}

// eventPublisher fans the confirmed order out to the notification pipeline.
type eventPublisher interface {
	OrderCreated(ctx context.Context, order *models.Order, customer *models.Customer) error
}
