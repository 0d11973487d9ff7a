package repository

import (
	"context"

	"foodorder/internal/domain/model"
)

type RestaurantSort string

const (
	SortBestMatch             RestaurantSort = "bestMatch"
	SortDeliveryPrice         RestaurantSort = "deliveryPrice"
	SortEstimatedDeliveryTime RestaurantSort = "estimatedDeliveryTime"
)

// 検索条件。Cityが空なら全都市。
type RestaurantSearchQuery struct {
	City             string
	SearchQuery      string
	SelectedCuisines []string
	Sort             RestaurantSort
	Page             int
	Limit            int
}

type RestaurantRepository interface {
	FindByID(ctx context.Context, id int64) (model.Restaurant, error)
	FindByUserID(ctx context.Context, userID int64) (model.Restaurant, error)
	Create(ctx context.Context, r *model.Restaurant) error
	// メニューは丸ごと置き換える
	Update(ctx context.Context, r *model.Restaurant) error
	Search(ctx context.Context, q RestaurantSearchQuery) ([]model.Restaurant, int64, error)
	ListCities(ctx context.Context) ([]string, error)
}
