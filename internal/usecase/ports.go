package usecase

import (
	"context"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
)

// 決済完了を通知するイベント種別
const PaymentEventCheckoutCompleted = "checkout.session.completed"

// 決済プロバイダへ渡すチェックアウト内容
type CheckoutSessionRequest struct {
	OrderID       int64
	RestaurantID  int64
	CustomerEmail string
	Summary       pricing.Summary
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// webhookから取り出した決済イベント
type PaymentEvent struct {
	Type        string
	SessionID   string
	OrderID     int64
	AmountTotal *pricing.Minor
}

// 決済プロバイダ（SDK）を隠す約束
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	// 生のbodyと署名ヘッダーを検証してイベントにする
	ParseWebhook(payload []byte, signature string) (PaymentEvent, error)
}

// 注文イベントの送信先（RabbitMQなど）
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o model.Order) error
	PublishOrderPaid(ctx context.Context, o model.Order) error
	PublishOrderStatusChanged(ctx context.Context, o model.Order, from model.OrderStatus) error
}
