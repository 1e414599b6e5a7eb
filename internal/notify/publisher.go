package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
)

const publishTimeout = 10 * time.Second

type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Publisher emits order events onto the order events topic.
type Publisher struct {
	topic topicPublisher
	logg  *logger.Logger
}

func NewPublisher(topic topicPublisher, logg *logger.Logger) (*Publisher, error) {
	if topic == nil {
		return nil, fmt.Errorf("order events topic required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Publisher{topic: topic, logg: logg}, nil
}

// OrderCreated publishes the confirmed order and waits for the broker ack.
func (p *Publisher) OrderCreated(ctx context.Context, order *models.Order, customer *models.Customer) error {
	if order == nil {
		return fmt.Errorf("order required")
	}

	event := NewOrderCreatedEvent(order, customer)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := p.topic.Publish(publishCtx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":   event.EventID,
			"event_type": EventTypeOrderCreated,
			"order_id":   order.ID.String(),
		},
	})
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}

	p.logg.Info(p.logg.WithOrderID(ctx, order.ID.String()), "order created event published")
	return nil
}
