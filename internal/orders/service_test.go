package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingRenderer struct {
	mu     sync.Mutex
	orders []uuid.UUID
	err    error
}

func (r *recordingRenderer) Render(ctx context.Context, order *models.Order, customer *models.Customer) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order.ID)
	return "/tmp/receipt.html", r.err
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type recordingPublisher struct {
	mu     sync.Mutex
	orders []uuid.UUID
	err    error
}

func (p *recordingPublisher) OrderCreated(ctx context.Context, order *models.Order, customer *models.Customer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, order.ID)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}

func newTestService(t *testing.T, db *gorm.DB, renderer *recordingRenderer, publisher *recordingPublisher) Service {
	t.Helper()

	engine := pricing.NewEngine(nil)
	params := ServiceParams{
		Logger:    logger.New(logger.Options{ServiceName: "orders-test"}),
		Repo:      NewRepository(db),
		Customers: customers.NewRepository(db),
		Tx:        gormTxRunner{db: db},
		Engine:    engine,
		Metrics:   metrics.NewBotMetrics(prometheus.NewRegistry()),
		Business:  config.BusinessConfig{AnticipoPercent: 50},
	}
	if renderer != nil {
		params.Renderer = renderer
	}
	if publisher != nil {
		params.Publisher = publisher
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func testCartLines() []cart.Line {
	return []cart.Line{
		{ProductID: uuid.New(), Name: "Milhoja", UnitPrice: 5000, Quantity: 30},
	}
}

func TestConfirmPersistsOrderAndItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	renderer := &recordingRenderer{}
	publisher := &recordingPublisher{}
	svc := newTestService(t, db, renderer, publisher)

	confirmation, err := svc.Confirm(context.Background(), ConfirmInput{
		SessionID:   "chat-1",
		DisplayName: "María",
		Lines:       testCartLines(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(150000), confirmation.Quote.Subtotal)
	assert.Equal(t, 5, confirmation.Quote.DiscountPercent)
	assert.Equal(t, int64(7500), confirmation.Quote.Discount)
	assert.Equal(t, int64(142500), confirmation.Quote.Total)
	assert.Equal(t, int64(71250), confirmation.Anticipo)
	assert.Equal(t, enums.OrderStatusPending, confirmation.Order.Status)
	assert.Zero(t, confirmation.Order.Tax)
	assert.Zero(t, confirmation.Order.DeliveryFee)

	found, err := NewRepository(db).FindOrder(context.Background(), confirmation.Order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, int64(150000), found.Items[0].Subtotal)

	customer, err := customers.NewRepository(db).FindByChatID(context.Background(), "chat-1")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "María", customer.Name)

	require.Eventually(t, func() bool {
		return renderer.count() == 1 && publisher.count() == 1
	}, 2*time.Second, 10*time.Millisecond, "fan-out should run after confirmation")
}

func TestConfirmEmptyCartFails(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, nil, nil)

	_, err := svc.Confirm(context.Background(), ConfirmInput{SessionID: "chat-1", DisplayName: "María"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestConfirmCopiesPreorderDetails(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, nil, nil)

	locationID := uuid.New()
	pickupDate := time.Date(2026, time.September, 3, 0, 0, 0, 0, time.UTC)
	confirmation, err := svc.Confirm(context.Background(), ConfirmInput{
		SessionID:   "chat-1",
		DisplayName: "María",
		Lines:       testCartLines(),
		Preorder: &preorder.Details{
			CustomerType: enums.CustomerTypeWholesale,
			Email:        "pedidos@panaderia.co",
			Phone:        "3014170313",
			Company:      "Panadería La Esquina",
			LocationID:   locationID,
			LocationName: "Centro",
			PickupDate:   pickupDate,
			PickupTime:   "14:00",
		},
	})
	require.NoError(t, err)

	order := confirmation.Order
	require.NotNil(t, order.CustomerType)
	assert.Equal(t, enums.CustomerTypeWholesale, *order.CustomerType)
	require.NotNil(t, order.Company)
	assert.Equal(t, "Panadería La Esquina", *order.Company)
	require.NotNil(t, order.PickupLocationID)
	assert.Equal(t, locationID, *order.PickupLocationID)
	require.NotNil(t, order.PickupTime)
	assert.Equal(t, "14:00", *order.PickupTime)

	customer := confirmation.Customer
	require.NotNil(t, customer.Email)
	assert.Equal(t, "pedidos@panaderia.co", *customer.Email)
}

func TestConfirmSurvivesFanoutFailure(t *testing.T) {
	db := setupOrdersTestDB(t)
	renderer := &recordingRenderer{err: assert.AnError}
	publisher := &recordingPublisher{err: assert.AnError}
	svc := newTestService(t, db, renderer, publisher)

	confirmation, err := svc.Confirm(context.Background(), ConfirmInput{
		SessionID:   "chat-1",
		DisplayName: "María",
		Lines:       testCartLines(),
	})
	require.NoError(t, err, "fan-out failures must not fail the order")

	require.Eventually(t, func() bool {
		return renderer.count() == 1 && publisher.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	found, err := NewRepository(db).FindOrder(context.Background(), confirmation.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
}

func TestTransitionForwardOnly(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, nil, nil)
	ctx := context.Background()

	customer := mustCreateCustomer(t, db, "chat-1")
	order := mustCreateOrder(t, db, customer.ID, enums.OrderStatusPending, time.Now())

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusDelivered,
	} {
		updated, err := svc.Transition(ctx, order.ID, next)
		require.NoError(t, err, next)
		assert.Equal(t, next, updated.Status)
	}
}

func TestTransitionRejectsSkipsAndBackwards(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, nil, nil)
	ctx := context.Background()

	customer := mustCreateCustomer(t, db, "chat-1")
	order := mustCreateOrder(t, db, customer.ID, enums.OrderStatusConfirmed, time.Now())

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusReady,
		enums.OrderStatusDelivered,
		enums.OrderStatusConfirmed,
	} {
		_, err := svc.Transition(ctx, order.ID, next)
		require.Error(t, err, next)
		assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	}
}

func TestTransitionCancelRules(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, nil, nil)
	ctx := context.Background()

	customer := mustCreateCustomer(t, db, "chat-1")

	ready := mustCreateOrder(t, db, customer.ID, enums.OrderStatusReady, time.Now())
	updated, err := svc.Transition(ctx, ready.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)

	_, err = svc.Transition(ctx, updated.ID, enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	delivered := mustCreateOrder(t, db, customer.ID, enums.OrderStatusDelivered, time.Now())
	_, err = svc.Transition(ctx, delivered.ID, enums.OrderStatusCancelled)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestTransitionUnknownOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, nil, nil)

	_, err := svc.Transition(context.Background(), uuid.New(), enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Transition(context.Background(), uuid.New(), enums.OrderStatus("bogus"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
