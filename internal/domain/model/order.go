package model

import (
	"time"

	"foodorder/internal/domain/pricing"
)

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusInProgress     OrderStatus = "inProgress"
	OrderStatusOutForDelivery OrderStatus = "outForDelivery"
	OrderStatusDelivered      OrderStatus = "delivered"
)

// ParseOrderStatus は文字列が有効なステータスかを確認する。
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPlaced, OrderStatusPaid, OrderStatusInProgress, OrderStatusOutForDelivery, OrderStatusDelivered:
		return st, true
	default:
		return "", false
	}
}

// 決済が完了しているか（placed以外）
func (s OrderStatus) IsPaid() bool {
	return s != OrderStatusPlaced && s != ""
}

// 配送先（注文時点のスナップショット）
type DeliveryDetails struct {
	Email        string `gorm:"type:varchar(255);not null" json:"email"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	AddressLine1 string `gorm:"type:varchar(255);not null" json:"address_line1"`
	City         string `gorm:"type:varchar(255);not null" json:"city"`
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"user_id"`
	RestaurantID    int64           `gorm:"not null;index" json:"restaurant_id"`
	DeliveryDetails DeliveryDetails `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_details"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	DeliveryFee     pricing.Minor   `gorm:"not null" json:"delivery_fee"`
	TotalAmount     pricing.Minor   `gorm:"not null" json:"total_amount"`

	//決済プロバイダのセッションID
	CheckoutSessionID string `gorm:"type:varchar(255);index" json:"-"`
	CheckoutURL       string `gorm:"type:text" json:"-"`

	//同じキーなら同じ注文（ヘッダーが無ければNULL）
	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idem" json:"-"`

	Items      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Restaurant *Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
