// Package orders runs the order confirmation pipeline and the admin
// status lifecycle.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/internal/cart"
	"github.com/casahojaldre/chatbot-backend/internal/customers"
	"github.com/casahojaldre/chatbot-backend/internal/preorder"
	"github.com/casahojaldre/chatbot-backend/internal/pricing"
	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/metrics"
	"github.com/casahojaldre/chatbot-backend/pkg/pagination"
)

const defaultFanoutTimeout = 15 * time.Second

// ConfirmInput carries everything the confirmation pipeline needs.
type ConfirmInput struct {
	SessionID   string
	DisplayName string
	Lines       []cart.Line
	Notes       *string
	Preorder    *preorder.Details
}

// Confirmation is the pipeline result handed back to the chat layer.
type Confirmation struct {
	Order    *models.Order
	Customer *models.Customer
	Quote    pricing.Quote
	Anticipo int64
}

// ListResult is one admin page of orders.
type ListResult struct {
	Orders     []models.Order
	NextCursor *string
}

// Service defines order operations beyond repository reads.
type Service interface {
	Confirm(ctx context.Context, input ConfirmInput) (*Confirmation, error)
	Transition(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
}

type service struct {
	logg          *logger.Logger
	repo          Repository
	customers     *customers.Repository
	tx            txRunner
	engine        *pricing.Engine
	renderer      documentRenderer
	publisher     eventPublisher
	metrics       *metrics.BotMetrics
	business      config.BusinessConfig
	fanoutTimeout time.Duration
}

// ServiceParams configures the orders service. Renderer and publisher
// are optional: when nil that fan-out step is skipped.
type ServiceParams struct {
	Logger        *logger.Logger
	Repo          Repository
	Customers     *customers.Repository
	Tx            txRunner
	Engine        *pricing.Engine
	Renderer      documentRenderer
	Publisher     eventPublisher
	Metrics       *metrics.BotMetrics
	Business      config.BusinessConfig
	FanoutTimeout time.Duration
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	timeout := params.FanoutTimeout
	if timeout <= 0 {
		timeout = defaultFanoutTimeout
	}
	return &service{
		logg:          params.Logger,
		repo:          params.Repo,
		customers:     params.Customers,
		tx:            params.Tx,
		engine:        params.Engine,
		renderer:      params.Renderer,
		publisher:     params.Publisher,
		metrics:       params.Metrics,
		business:      params.Business,
		fanoutTimeout: timeout,
	}, nil
}

// Confirm turns the session cart into a pending order: it upserts the
// customer, snapshots the cart lines, persists order and items in one
// transaction and then fans out the receipt and the admin notification
// without blocking the reply.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*Confirmation, error) {
	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot confirm an empty cart")
	}

	quote := s.engine.Quote(cart.PricingLines(input.Lines))

	var order *models.Order
	var customer *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		upsert := customers.UpsertInput{
			ChatID: input.SessionID,
			Name:   input.DisplayName,
		}
		if input.Preorder != nil {
			if input.Preorder.Email != "" {
				upsert.Email = &input.Preorder.Email
			}
			if input.Preorder.Phone != "" {
				upsert.Phone = &input.Preorder.Phone
			}
		}

		var err error
		customer, err = s.customers.WithTx(tx).Upsert(ctx, upsert)
		if err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}

		order = s.buildOrder(customer.ID, input, quote)
		if order, err = s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := buildItems(order.ID, input.Lines)
		if err := s.repo.WithTx(tx).CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		order.Items = items
		return nil
	})
	if err != nil {
		s.metrics.IncOrderResult("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order confirmation failed")
	}

	s.metrics.IncOrderResult("confirmed")
	s.fanout(ctx, order, customer)

	return &Confirmation{
		Order:    order,
		Customer: customer,
		Quote:    quote,
		Anticipo: s.anticipo(quote.Total),
	}, nil
}

func (s *service) buildOrder(customerID uuid.UUID, input ConfirmInput, quote pricing.Quote) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		Status:          enums.OrderStatusPending,
		Subtotal:        quote.Subtotal,
		Tax:             0,
		DeliveryFee:     0,
		Discount:        quote.Discount,
		DiscountPercent: quote.DiscountPercent,
		Total:           quote.Total,
		Notes:           input.Notes,
	}
	if details := input.Preorder; details != nil {
		kind := details.CustomerType
		order.CustomerType = &kind
		if details.Company != "" {
			order.Company = &details.Company
		}
		if details.Email != "" {
			order.ContactEmail = &details.Email
		}
		if details.Phone != "" {
			order.ContactPhone = &details.Phone
		}
		locationID := details.LocationID
		order.PickupLocationID = &locationID
		pickupDate := details.PickupDate
		order.PickupDate = &pickupDate
		pickupTime := details.PickupTime
		order.PickupTime = &pickupTime
	}
	return order
}

func buildItems(orderID uuid.UUID, lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.UnitPrice * int64(line.Quantity),
		})
	}
	return items
}

// fanout runs the post-commit side effects. Failures are logged and
// counted but never surface to the customer: the order is already
// persisted.
func (s *service) fanout(ctx context.Context, order *models.Order, customer *models.Customer) {
	if s.renderer == nil && s.publisher == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		fanCtx, cancel := context.WithTimeout(detached, s.fanoutTimeout)
		defer cancel()
		fanCtx = s.logg.WithOrderID(fanCtx, order.ID.String())

		if s.renderer != nil {
			if _, err := s.renderer.Render(fanCtx, order, customer); err != nil {
				s.metrics.IncFanoutFailure("document")
				s.logg.Error(fanCtx, "order receipt render failed", err)
			}
		}
		if s.publisher != nil {
			if err := s.publisher.OrderCreated(fanCtx, order, customer); err != nil {
				s.metrics.IncFanoutFailure("notify")
				s.logg.Error(fanCtx, "order created event publish failed", err)
			}
		}
	}()
}

func (s *service) anticipo(total int64) int64 {
	percent := s.business.AnticipoPercent
	if percent <= 0 || percent >= 100 {
		percent = 50
	}
	return decimal.NewFromInt(total).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// Transition advances an order along its lifecycle. Orders only move
// forward one step at a time; any non-terminal order may be cancelled.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": next.String()})
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}

	if !transitionAllowed(order.Status, next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{
				"current":   order.Status.String(),
				"requested": next.String(),
			})
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.Status = next
	return order, nil
}

var nextStatus = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:   enums.OrderStatusConfirmed,
	enums.OrderStatusConfirmed: enums.OrderStatusPreparing,
	enums.OrderStatusPreparing: enums.OrderStatusReady,
	enums.OrderStatusReady:     enums.OrderStatusDelivered,
}

func transitionAllowed(current, next enums.OrderStatus) bool {
	if current.IsTerminal() {
		return false
	}
	if next == enums.OrderStatusCancelled {
		return true
	}
	return nextStatus[current] == next
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	orders, cursor, err := s.repo.ListOrders(ctx, params, filters)
	if err != nil {
		return nil, err
	}
	result := &ListResult{Orders: orders}
	if cursor != nil {
		encoded := pagination.EncodeCursor(*cursor)
		result.NextCursor = &encoded
	}
	return result, nil
}
