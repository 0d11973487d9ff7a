package events

import (
	"fmt"
	"time"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
)

const (
	OrderPlacedEvent        = "OrderPlaced"
	OrderPaidEvent          = "OrderPaid"
	OrderStatusChangedEvent = "OrderStatusChanged"

	eventVersion = 1
	producer     = "foodorder-api"
)

// 全イベント共通の封筒。Payloadはイベントごとに型を持つ。
type EventEnvelope[T any] struct {
	EventName    string    `json:"event_name"`
	EventVersion int       `json:"event_version"`
	EventID      string    `json:"event_id"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partition_key"`
	OccurredAt   time.Time `json:"occurred_at"`
	Payload      T         `json:"payload"`
}

// Validate は受け取った封筒が想定したイベントかを確認する。
func (e EventEnvelope[T]) Validate(expectedName string) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected event_name: %s", e.EventName)
	}
	if e.EventVersion != eventVersion {
		return fmt.Errorf("unexpected event_version: %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partition_key")
	}
	return nil
}

type OrderItemPayload struct {
	MenuItemID int64         `json:"menu_item_id"`
	Name       string        `json:"name"`
	UnitPrice  pricing.Minor `json:"unit_price"`
	Quantity   int64         `json:"quantity"`
}

type OrderPlacedPayload struct {
	OrderID      int64              `json:"order_id"`
	UserID       int64              `json:"user_id"`
	RestaurantID int64              `json:"restaurant_id"`
	DeliveryFee  pricing.Minor      `json:"delivery_fee"`
	TotalAmount  pricing.Minor      `json:"total_amount"`
	Items        []OrderItemPayload `json:"items"`
}

type OrderPaidPayload struct {
	OrderID      int64         `json:"order_id"`
	UserID       int64         `json:"user_id"`
	RestaurantID int64         `json:"restaurant_id"`
	TotalAmount  pricing.Minor `json:"total_amount"`
}

type OrderStatusChangedPayload struct {
	OrderID      int64             `json:"order_id"`
	RestaurantID int64             `json:"restaurant_id"`
	From         model.OrderStatus `json:"from"`
	To           model.OrderStatus `json:"to"`
}

func orderPlacedPayload(o model.Order) OrderPlacedPayload {
	p := OrderPlacedPayload{
		OrderID:      o.ID,
		UserID:       o.UserID,
		RestaurantID: o.RestaurantID,
		DeliveryFee:  o.DeliveryFee,
		TotalAmount:  o.TotalAmount,
		Items:        make([]OrderItemPayload, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, OrderItemPayload{
			MenuItemID: it.MenuItemID,
			Name:       it.NameSnapshot,
			UnitPrice:  it.UnitPriceSnapshot,
			Quantity:   it.Quantity,
		})
	}
	return p
}
