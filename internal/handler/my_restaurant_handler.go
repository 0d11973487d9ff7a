package handler

import (
	"net/http"
	"strconv"

	"foodorder/internal/config"
	"foodorder/internal/domain/pricing"
	"foodorder/internal/middleware"
	"foodorder/internal/repository"
	"foodorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type MyRestaurantHandler struct {
	uc *usecase.MyRestaurantUsecase
}

func NewMyRestaurantHandler(uc *usecase.MyRestaurantUsecase) *MyRestaurantHandler {
	return &MyRestaurantHandler{uc: uc}
}

// idは既存メニューを更新するときだけ付ける
type MenuItemRequest struct {
	ID    int64         `json:"id,omitempty"`
	Name  string        `json:"name"`
	Price pricing.Minor `json:"price"`
}

type RestaurantRequest struct {
	Name                  string            `json:"name"`
	City                  string            `json:"city"`
	Country               string            `json:"country"`
	DeliveryPrice         pricing.Minor     `json:"delivery_price"`
	EstimatedDeliveryTime int               `json:"estimated_delivery_time"`
	Cuisines              []string          `json:"cuisines"`
	MenuItems             []MenuItemRequest `json:"menu_items"`
	ImageURL              string            `json:"image_url"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *MyRestaurantHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/api/my/restaurant")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("", h.get)
	g.POST("", h.create)
	g.PUT("", h.update)
	g.GET("/orders", h.orders)
	g.PATCH("/order/:orderId/status", h.updateOrderStatus)
}

func (h *MyRestaurantHandler) get(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	r, err := h.uc.GetMyRestaurant(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *MyRestaurantHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req RestaurantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	r, err := h.uc.CreateMyRestaurant(c.Request().Context(), userID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *MyRestaurantHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req RestaurantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	r, err := h.uc.UpdateMyRestaurant(c.Request().Context(), userID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *MyRestaurantHandler) orders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMyRestaurantOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MyRestaurantHandler) updateOrderStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateOrderStatus(c.Request().Context(), userID, orderID, usecase.UpdateOrderStatusInput{
		Status: req.Status,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (r RestaurantRequest) toInput() usecase.RestaurantInput {
	in := usecase.RestaurantInput{
		Name:                  r.Name,
		City:                  r.City,
		Country:               r.Country,
		DeliveryPrice:         r.DeliveryPrice,
		EstimatedDeliveryTime: r.EstimatedDeliveryTime,
		Cuisines:              r.Cuisines,
		ImageURL:              r.ImageURL,
	}
	for _, mi := range r.MenuItems {
		in.MenuItems = append(in.MenuItems, usecase.MenuItemInput{ID: mi.ID, Name: mi.Name, Price: mi.Price})
	}
	return in
}
