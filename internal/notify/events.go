// Package notify fans confirmed orders out to the back office: an
// order event on Pub/Sub, consumed by the worker into an admin email.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
)

// EventTypeOrderCreated tags order confirmation events on the topic.
const EventTypeOrderCreated = "order.created"

// OrderCreatedEvent is the wire envelope for a confirmed order.
type OrderCreatedEvent struct {
	EventID    string           `json:"event_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Order      OrderPayload     `json:"order"`
	Customer   *CustomerPayload `json:"customer,omitempty"`
}

// OrderPayload snapshots the order fields the back office cares about.
type OrderPayload struct {
	OrderID         uuid.UUID           `json:"order_id"`
	Status          enums.OrderStatus   `json:"status"`
	Subtotal        int64               `json:"subtotal"`
	Discount        int64               `json:"discount"`
	DiscountPercent int                 `json:"discount_percent"`
	Total           int64               `json:"total"`
	Items           []ItemPayload       `json:"items"`
	CustomerType    *enums.CustomerType `json:"customer_type,omitempty"`
	ContactEmail    *string             `json:"contact_email,omitempty"`
	PickupLocation  *uuid.UUID          `json:"pickup_location_id,omitempty"`
	PickupDate      *time.Time          `json:"pickup_date,omitempty"`
	PickupTime      *string             `json:"pickup_time,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
}

// ItemPayload is one snapshotted order line.
type ItemPayload struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// CustomerPayload carries the buyer contact details for the admin email.
type CustomerPayload struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// NewOrderCreatedEvent builds the envelope from persisted models.
func NewOrderCreatedEvent(order *models.Order, customer *models.Customer) OrderCreatedEvent {
	event := OrderCreatedEvent{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Order: OrderPayload{
			OrderID:         order.ID,
			Status:          order.Status,
			Subtotal:        order.Subtotal,
			Discount:        order.Discount,
			DiscountPercent: order.DiscountPercent,
			Total:           order.Total,
			CustomerType:    order.CustomerType,
			ContactEmail:    order.ContactEmail,
			PickupLocation:  order.PickupLocationID,
			PickupDate:      order.PickupDate,
			PickupTime:      order.PickupTime,
			Notes:           order.Notes,
		},
	}
	for _, item := range order.Items {
		event.Order.Items = append(event.Order.Items, ItemPayload{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	if customer != nil {
		event.Customer = &CustomerPayload{
			Name:  customer.Name,
			Phone: customer.Phone,
			Email: customer.Email,
		}
	}
	return event
}
