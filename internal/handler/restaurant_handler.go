package handler

import (
	"net/http"
	"strconv"

	"foodorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/restaurant の公開API
type RestaurantHandler struct {
	uc *usecase.RestaurantUsecase
}

// DI
func NewRestaurantHandler(uc *usecase.RestaurantUsecase) *RestaurantHandler {
	return &RestaurantHandler{uc: uc}
}

// 公開ルートを登録（/citiesは/:restaurantIdより先）
func (h *RestaurantHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/restaurant")
	g.GET("/cities", h.cities)
	g.GET("/search/:city", h.search)
	g.GET("/:restaurantId", h.detail)
}

func (h *RestaurantHandler) search(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	out, err := h.uc.Search(c.Request().Context(), usecase.SearchRestaurantsInput{
		City:             c.Param("city"),
		SearchQuery:      c.QueryParam("searchQuery"),
		SelectedCuisines: c.QueryParam("selectedCuisines"),
		SortOption:       c.QueryParam("sortOption"),
		Page:             page,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *RestaurantHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("restaurantId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	r, err := h.uc.GetRestaurant(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, r)
}

func (h *RestaurantHandler) cities(c echo.Context) error {
	cities, err := h.uc.ListCities(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cities)
}
