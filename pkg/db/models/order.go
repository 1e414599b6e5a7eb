package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/casahojaldre/chatbot-backend/pkg/enums"
)

// Order is a confirmed purchase. Pickup fields are populated only for
// scheduled preorders; retail chat orders leave them nil.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	Subtotal         int64               `gorm:"column:subtotal;not null"`
	Tax              int64               `gorm:"column:tax;not null;default:0"`
	DeliveryFee      int64               `gorm:"column:delivery_fee;not null;default:0"`
	Discount         int64               `gorm:"column:discount;not null;default:0"`
	DiscountPercent  int                 `gorm:"column:discount_percent;not null;default:0"`
	Total            int64               `gorm:"column:total;not null"`
	Notes            *string             `gorm:"column:notes"`
	CustomerType     *enums.CustomerType `gorm:"column:customer_type"`
	Company          *string             `gorm:"column:company"`
	ContactEmail     *string             `gorm:"column:contact_email"`
	ContactPhone     *string             `gorm:"column:contact_phone"`
	PickupLocationID *uuid.UUID          `gorm:"column:pickup_location_id;type:uuid"`
	PickupDate       *time.Time          `gorm:"column:pickup_date"`
	PickupTime       *string             `gorm:"column:pickup_time"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a cart line at confirmation time. Name and unit
// price are copied so later catalog edits never rewrite history.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	UnitPrice int64     `gorm:"column:unit_price;not null"`
	Subtotal  int64     `gorm:"column:subtotal;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
