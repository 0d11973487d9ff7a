package model

import (
	"time"

	"foodorder/internal/domain/pricing"

	"github.com/lib/pq"
)

// 1ユーザーにつきレストランは1つ
type Restaurant struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	Name    string `gorm:"type:varchar(255);not null;index" json:"name"`
	City    string `gorm:"type:varchar(255);not null;index" json:"city"`
	Country string `gorm:"type:varchar(255);not null" json:"country"`

	//配送料（最小通貨単位）
	DeliveryPrice pricing.Minor `gorm:"not null" json:"delivery_price"`

	//配達までの目安（分）
	EstimatedDeliveryTime int `gorm:"not null" json:"estimated_delivery_time"`

	Cuisines  pq.StringArray `gorm:"type:text[];not null" json:"cuisines"`
	MenuItems []MenuItem     `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"menu_items"`
	ImageURL  string         `gorm:"type:text" json:"image_url"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;index" json:"last_updated"`
}
