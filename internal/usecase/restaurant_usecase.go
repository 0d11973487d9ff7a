package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"foodorder/internal/domain/model"
	repo "foodorder/internal/repository"
)

const searchPageSize = 10

// 公開検索（ログイン不要）
type RestaurantUsecase struct {
	restaurants repo.RestaurantRepository
}

func NewRestaurantUsecase(restaurants repo.RestaurantRepository) *RestaurantUsecase {
	return &RestaurantUsecase{restaurants: restaurants}
}

// GET /api/restaurant/search/:city の入力DTO
type SearchRestaurantsInput struct {
	City             string
	SearchQuery      string
	SelectedCuisines string // カンマ区切り
	SortOption       string
	Page             int
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int64 `json:"pages"`
}

type RestaurantSearchOutput struct {
	Data       []model.Restaurant `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

func (u *RestaurantUsecase) Search(ctx context.Context, in SearchRestaurantsInput) (RestaurantSearchOutput, error) {
	page := in.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return RestaurantSearchOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}

	q := strings.TrimSpace(in.SearchQuery)
	if len(q) > 100 {
		return RestaurantSearchOutput{}, NewHTTPError(http.StatusBadRequest, "searchQuery too long")
	}

	sort := repo.RestaurantSort(strings.TrimSpace(in.SortOption))
	switch sort {
	case "":
		sort = repo.SortBestMatch
	case repo.SortBestMatch, repo.SortDeliveryPrice, repo.SortEstimatedDeliveryTime:
	default:
		return RestaurantSearchOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sortOption")
	}

	// "all"は全都市
	city := strings.TrimSpace(in.City)
	if strings.EqualFold(city, "all") {
		city = ""
	}

	var cuisines []string
	for _, c := range strings.Split(in.SelectedCuisines, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cuisines = append(cuisines, c)
		}
	}

	items, total, err := u.restaurants.Search(ctx, repo.RestaurantSearchQuery{
		City:             city,
		SearchQuery:      q,
		SelectedCuisines: cuisines,
		Sort:             sort,
		Page:             page,
		Limit:            searchPageSize,
	})
	if err != nil {
		return RestaurantSearchOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if items == nil {
		items = []model.Restaurant{}
	}

	return RestaurantSearchOutput{
		Data: items,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Pages: (total + searchPageSize - 1) / searchPageSize,
		},
	}, nil
}

func (u *RestaurantUsecase) GetRestaurant(ctx context.Context, restaurantID int64) (model.Restaurant, error) {
	if restaurantID <= 0 {
		return model.Restaurant{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	r, err := u.restaurants.FindByID(ctx, restaurantID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Restaurant{}, NewHTTPError(http.StatusNotFound, "restaurant not found")
	}
	if err != nil {
		return model.Restaurant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return r, nil
}

// 都市の候補（トップページ用）
func (u *RestaurantUsecase) ListCities(ctx context.Context) ([]string, error) {
	cities, err := u.restaurants.ListCities(ctx)
	if err != nil {
		return []string{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if cities == nil {
		cities = []string{}
	}
	return cities, nil
}
