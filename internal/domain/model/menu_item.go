package model

import "foodorder/internal/domain/pricing"

type MenuItem struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID int64         `gorm:"not null;index" json:"restaurant_id"`
	Name         string        `gorm:"type:varchar(255);not null" json:"name"`
	Price        pricing.Minor `gorm:"not null" json:"price"`
}
