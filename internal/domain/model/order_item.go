package model

import (
	"time"

	"foodorder/internal/domain/pricing"
)

// 注文明細は注文時点の名前と価格を必ず保存する。
type OrderItem struct {
	ID                int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64         `gorm:"not null;index" json:"order_id"`
	MenuItemID        int64         `gorm:"not null;index" json:"menu_item_id"`
	NameSnapshot      string        `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot pricing.Minor `gorm:"not null" json:"unit_price"`
	Quantity          int64         `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
}
