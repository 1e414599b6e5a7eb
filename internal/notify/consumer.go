package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/types"
)

const (
	orderEventConsumer = "order-emails"
	dedupeTTL          = 24 * time.Hour
)

type deduper interface {
	MarkSeen(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
}

// Consumer turns order created events into admin notification emails.
type Consumer struct {
	subscription *pubsub.Subscriber
	sender       Sender
	dedupe       deduper
	logg         *logger.Logger
	smtp         config.SMTPConfig
	business     config.BusinessConfig
}

// ConsumerParams configures the order event consumer.
type ConsumerParams struct {
	Subscription *pubsub.Subscriber
	Sender       Sender
	Dedupe       deduper
	Logger       *logger.Logger
	SMTP         config.SMTPConfig
	Business     config.BusinessConfig
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, fmt.Errorf("order events subscription required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.SMTP.AdminEmail == "" {
		return nil, fmt.Errorf("admin email required")
	}
	return &Consumer{
		subscription: params.Subscription,
		sender:       params.Sender,
		dedupe:       params.Dedupe,
		logg:         params.Logger,
		smtp:         params.SMTP,
		business:     params.Business,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.Data, msg.Attributes, msg.ID)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, data []byte, attributes map[string]string, messageID string) processResult {
	eventType := attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != EventTypeOrderCreated {
		c.logg.Info(logCtx, "skipping unhandled event type")
		return processResult{ack: true}
	}

	var event OrderCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode order event", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithOrderID(logCtx, event.Order.OrderID.String())

	if c.dedupe != nil && event.EventID != "" {
		first, err := c.dedupe.MarkSeen(ctx, orderEventConsumer, event.EventID, dedupeTTL)
		if err != nil {
			c.logg.Error(logCtx, "dedupe check failed", err)
			return processResult{nack: true}
		}
		if !first {
			c.logg.Info(logCtx, "event already processed")
			return processResult{ack: true}
		}
	}

	subject, body := c.composeEmail(event)
	if err := c.sender.Send(ctx, []string{c.smtp.AdminEmail}, subject, body); err != nil {
		c.logg.Error(logCtx, "admin email delivery failed", err)
		return processResult{nack: true}
	}
	c.logg.Info(logCtx, "admin notified of new order")

	// Wholesale buyers who left an email get a receipt copy. Best
	// effort: a failure here must not redeliver the admin email.
	if to := wholesaleRecipient(event.Order); to != "" {
		subject, body := c.composeCustomerEmail(event)
		if err := c.sender.Send(ctx, []string{to}, subject, body); err != nil {
			c.logg.Error(logCtx, "customer email delivery failed", err)
		}
	}
	return processResult{ack: true}
}

func wholesaleRecipient(order OrderPayload) string {
	if order.CustomerType == nil || *order.CustomerType != enums.CustomerTypeWholesale {
		return ""
	}
	if order.ContactEmail == nil {
		return ""
	}
	return strings.TrimSpace(*order.ContactEmail)
}

func (c *Consumer) composeCustomerEmail(event OrderCreatedEvent) (string, string) {
	order := event.Order
	subject := fmt.Sprintf("%s — confirmación de tu pedido %s", c.business.Name, shortID(order.OrderID.String()))

	var b strings.Builder
	b.WriteString("¡Gracias por tu pedido!\n\nResumen:\n")
	for _, item := range order.Items {
		b.WriteString(fmt.Sprintf("  - %s x%d = %s\n", item.Name, item.Quantity, types.FormatCOP(item.Subtotal)))
	}
	b.WriteString(fmt.Sprintf("\nTotal: %s\n", types.FormatCOP(order.Total)))
	if order.PickupDate != nil {
		b.WriteString(fmt.Sprintf("Recogida: %s", order.PickupDate.Format("2006-01-02")))
		if order.PickupTime != nil {
			b.WriteString(fmt.Sprintf(" a las %s", *order.PickupTime))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nCualquier duda, escríbenos por WhatsApp al %s.\n", c.business.WhatsApp))
	return subject, b.String()
}

func (c *Consumer) composeEmail(event OrderCreatedEvent) (string, string) {
	order := event.Order
	subject := fmt.Sprintf("Nuevo pedido %s por %s", shortID(order.OrderID.String()), types.FormatCOP(order.Total))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Pedido %s\n", order.OrderID))
	if event.Customer != nil {
		b.WriteString(fmt.Sprintf("Cliente: %s\n", event.Customer.Name))
		if event.Customer.Phone != nil {
			b.WriteString(fmt.Sprintf("Celular: %s\n", *event.Customer.Phone))
		}
		if event.Customer.Email != nil {
			b.WriteString(fmt.Sprintf("Correo: %s\n", *event.Customer.Email))
		}
	}
	b.WriteString("\nProductos:\n")
	for _, item := range order.Items {
		b.WriteString(fmt.Sprintf("  - %s x%d (%s) = %s\n",
			item.Name, item.Quantity, types.FormatCOP(item.UnitPrice), types.FormatCOP(item.Subtotal)))
	}
	b.WriteString(fmt.Sprintf("\nSubtotal: %s\n", types.FormatCOP(order.Subtotal)))
	if order.Discount > 0 {
		b.WriteString(fmt.Sprintf("Descuento (%d%%): -%s\n", order.DiscountPercent, types.FormatCOP(order.Discount)))
	}
	b.WriteString(fmt.Sprintf("Total: %s\n", types.FormatCOP(order.Total)))
	if order.PickupDate != nil {
		b.WriteString(fmt.Sprintf("\nRecogida: %s", order.PickupDate.Format("2006-01-02")))
		if order.PickupTime != nil {
			b.WriteString(fmt.Sprintf(" a las %s", *order.PickupTime))
		}
		b.WriteString("\n")
	}
	if order.Notes != nil && *order.Notes != "" {
		b.WriteString(fmt.Sprintf("\nNotas: %s\n", *order.Notes))
	}
	return subject, b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
