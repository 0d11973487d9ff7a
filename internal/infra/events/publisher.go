package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"foodorder/internal/domain/model"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderPlacedQueue        = "order.placed"
	OrderPaidQueue          = "order.paid"
	OrderStatusChangedQueue = "order.status_changed"

	publishTimeout = 3 * time.Second
)

// amqp.Channelのうち使う部分だけ（テストで差し替える）
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQへ注文イベントを送る
type Publisher struct {
	ch  channel
	now func() time.Time
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return newPublisher(ch)
}

func newPublisher(ch channel) (*Publisher, error) {
	// 送る前にキューを用意しておく
	for _, q := range []string{OrderPlacedQueue, OrderPaidQueue, OrderStatusChangedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}
	return &Publisher{ch: ch, now: time.Now}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o model.Order) error {
	return publish(ctx, p, OrderPlacedQueue, OrderPlacedEvent, o.ID, orderPlacedPayload(o))
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, o model.Order) error {
	return publish(ctx, p, OrderPaidQueue, OrderPaidEvent, o.ID, OrderPaidPayload{
		OrderID:      o.ID,
		UserID:       o.UserID,
		RestaurantID: o.RestaurantID,
		TotalAmount:  o.TotalAmount,
	})
}

func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, o model.Order, from model.OrderStatus) error {
	return publish(ctx, p, OrderStatusChangedQueue, OrderStatusChangedEvent, o.ID, OrderStatusChangedPayload{
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		From:         from,
		To:           o.Status,
	})
}

func publish[T any](ctx context.Context, p *Publisher, queue string, name string, orderID int64, payload T) error {
	env := EventEnvelope[T]{
		EventName:    name,
		EventVersion: eventVersion,
		EventID:      uuid.NewString(),
		Producer:     producer,
		PartitionKey: strconv.FormatInt(orderID, 10),
		OccurredAt:   p.now().UTC(),
		Payload:      payload,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// デフォルトexchange、キュー名をルーティングキーにする
	if err := p.ch.PublishWithContext(pubCtx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.EventID,
		Timestamp:    env.OccurredAt,
		Type:         name,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// RABBITMQ_URLが無いときに使う（何も送らない）
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, model.Order) error { return nil }
func (NopPublisher) PublishOrderPaid(context.Context, model.Order) error   { return nil }
func (NopPublisher) PublishOrderStatusChanged(context.Context, model.Order, model.OrderStatus) error {
	return nil
}
