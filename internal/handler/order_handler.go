package handler

import (
	"io"
	"net/http"
	"strconv"

	"foodorder/internal/config"
	"foodorder/internal/middleware"
	"foodorder/internal/repository"
	"foodorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

const webhookSignatureHeader = "X-Webhook-Signature"

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type CartItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int64 `json:"quantity"`
}

type QuoteRequest struct {
	RestaurantID int64             `json:"restaurant_id"`
	CartItems    []CartItemRequest `json:"cart_items"`
}

type DeliveryDetailsRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
}

type CheckoutRequest struct {
	RestaurantID    int64                  `json:"restaurant_id"`
	CartItems       []CartItemRequest      `json:"cart_items"`
	DeliveryDetails DeliveryDetailsRequest `json:"delivery_details"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	//webhookは決済プロバイダから直接来るのでJWTなし
	e.POST("/api/order/checkout/webhook", h.webhook)

	g := e.Group("/api/order")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("/quote", h.quote)
	g.POST("/checkout/create-checkout-session", h.createCheckoutSession)
	g.GET("", h.list)
	g.GET("/:orderId", h.detail)
}

func (h *OrderHandler) quote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.QuoteCart(c.Request().Context(), usecase.QuoteInput{
		RestaurantID: req.RestaurantID,
		Items:        toCartItems(req.CartItems),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) createCheckoutSession(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	out, err := h.uc.CreateCheckoutSession(c.Request().Context(), userID, usecase.CheckoutInput{
		RestaurantID: req.RestaurantID,
		Items:        toCartItems(req.CartItems),
		DeliveryDetails: usecase.DeliveryDetailsInput{
			Email:        req.DeliveryDetails.Email,
			Name:         req.DeliveryDetails.Name,
			AddressLine1: req.DeliveryDetails.AddressLine1,
			City:         req.DeliveryDetails.City,
		},
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 署名検証のため生のbodyをそのまま渡す
func (h *OrderHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get(webhookSignatureHeader)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMyOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func toCartItems(reqs []CartItemRequest) []usecase.CartItemInput {
	items := make([]usecase.CartItemInput, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, usecase.CartItemInput{MenuItemID: r.MenuItemID, Quantity: r.Quantity})
	}
	return items
}
