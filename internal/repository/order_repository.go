package repository

import (
	"context"
	"time"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
)

// 期間の絞り込み（nilなら制限なし）
type OrderPeriod struct {
	From *time.Time
	To   *time.Time
}

type OrderRepository interface {
	// 明細も一緒に作成する
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)

	SetCheckoutSession(ctx context.Context, orderID int64, sessionID string, url string) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// placedの注文だけを更新する。既に決済済みなら false を返す
	MarkPaid(ctx context.Context, orderID int64, total pricing.Minor) (bool, error)

	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	ListByRestaurantID(ctx context.Context, restaurantID int64, period OrderPeriod) ([]model.Order, error)
}
