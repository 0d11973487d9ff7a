package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
	repo "foodorder/internal/repository"

	"go.uber.org/zap"
)

const maxIdempotencyKeyLength = 255

type OrderUsecase struct {
	tx          repo.TransactionManager
	orders      repo.OrderRepository
	restaurants repo.RestaurantRepository
	gateway     PaymentGateway
	events      OrderEventPublisher
	logger      *zap.Logger
	feURL       string
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	restaurants repo.RestaurantRepository,
	gateway PaymentGateway,
	events OrderEventPublisher,
	logger *zap.Logger,
	feURL string,
) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		orders:      orders,
		restaurants: restaurants,
		gateway:     gateway,
		events:      events,
		logger:      logger,
		feURL:       strings.TrimRight(feURL, "/"),
	}
}

// カートの1行（価格はサーバー側のメニューから引く）
type CartItemInput struct {
	MenuItemID int64
	Quantity   int64
}

type QuoteInput struct {
	RestaurantID int64
	Items        []CartItemInput
}

type QuoteOutput struct {
	RestaurantID int64           `json:"restaurant_id"`
	Summary      pricing.Summary `json:"summary"`
}

type DeliveryDetailsInput struct {
	Email        string
	Name         string
	AddressLine1 string
	City         string
}

type CheckoutInput struct {
	RestaurantID    int64
	Items           []CartItemInput
	DeliveryDetails DeliveryDetailsInput
	IdempotencyKey  string
}

type CheckoutOutput struct {
	URL     string          `json:"url"`
	OrderID int64           `json:"order_id"`
	Summary pricing.Summary `json:"summary"`
}

type OrderItemOutput struct {
	MenuItemID int64         `json:"menu_item_id"`
	Name       string        `json:"name"`
	UnitPrice  pricing.Minor `json:"unit_price"`
	Quantity   int64         `json:"quantity"`
	Subtotal   pricing.Minor `json:"subtotal"`
	Display    string        `json:"display"`
}

type OrderRestaurantOutput struct {
	ID                    int64  `json:"id"`
	Name                  string `json:"name"`
	City                  string `json:"city"`
	ImageURL              string `json:"image_url"`
	EstimatedDeliveryTime int    `json:"estimated_delivery_time"`
}

type OrderOutput struct {
	ID              int64                  `json:"id"`
	UserID          int64                  `json:"user_id"`
	RestaurantID    int64                  `json:"restaurant_id"`
	Restaurant      *OrderRestaurantOutput `json:"restaurant,omitempty"`
	Status          string                 `json:"status"`
	DeliveryDetails model.DeliveryDetails  `json:"delivery_details"`
	Items           []OrderItemOutput      `json:"items"`
	DeliveryFee     pricing.Minor          `json:"delivery_fee"`
	TotalAmount     pricing.Minor          `json:"total_amount"`
	TotalDisplay    string                 `json:"total_display"`
	CreatedAt       time.Time              `json:"created_at"`
}

// QuoteCart はカートのスナップショットから表示用の金額をまとめる。
// 空カートでも配送料だけの合計を返す。
func (u *OrderUsecase) QuoteCart(ctx context.Context, in QuoteInput) (QuoteOutput, error) {
	if in.RestaurantID <= 0 {
		return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant_id")
	}

	rest, err := u.findRestaurant(ctx, in.RestaurantID)
	if err != nil {
		return QuoteOutput{}, err
	}

	items, err := priceCart(rest, in.Items)
	if err != nil {
		return QuoteOutput{}, err
	}

	summary, err := pricing.Summarize(items, rest.DeliveryPrice)
	if err != nil {
		return QuoteOutput{}, pricingError(err)
	}

	return QuoteOutput{RestaurantID: rest.ID, Summary: summary}, nil
}

// CreateCheckoutSession は注文(placed)を作って決済ページのURLを返す。
func (u *OrderUsecase) CreateCheckoutSession(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.RestaurantID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant_id")
	}
	details, err := validateDeliveryDetails(in.DeliveryDetails)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if len(in.Items) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLength {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	rest, err := u.findRestaurant(ctx, in.RestaurantID)
	if err != nil {
		return CheckoutOutput{}, err
	}

	items, err := priceCart(rest, in.Items)
	if err != nil {
		return CheckoutOutput{}, err
	}
	summary, err := pricing.Summarize(items, rest.DeliveryPrice)
	if err != nil {
		return CheckoutOutput{}, pricingError(err)
	}

	var order model.Order
	var replay bool

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if found {
				order = existing
				replay = true
				return nil
			}
		}

		order = newOrder(userID, rest, details, summary, key)
		if err := r.Orders().Create(ctx, &order); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return err
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	//同時に同じキーが入った場合は、先に作られた注文を返す
	if errors.Is(err, repo.ErrConflict) {
		existing, found, findErr := u.orders.FindByIdempotencyKey(ctx, userID, key)
		if findErr != nil || !found {
			return CheckoutOutput{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		order, replay, err = existing, true, nil
	}
	if err != nil {
		return CheckoutOutput{}, err
	}

	if replay {
		return u.replayCheckout(ctx, order)
	}

	url, err := u.startCheckout(ctx, order, summary)
	if err != nil {
		return CheckoutOutput{}, err
	}
	return CheckoutOutput{URL: url, OrderID: order.ID, Summary: summary}, nil
}

// 決済セッションを作って注文に保存し、order.placed を流す
func (u *OrderUsecase) startCheckout(ctx context.Context, order model.Order, summary pricing.Summary) (string, error) {
	sess, err := u.gateway.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		OrderID:       order.ID,
		RestaurantID:  order.RestaurantID,
		CustomerEmail: order.DeliveryDetails.Email,
		Summary:       summary,
		SuccessURL:    u.feURL + "/order-status?success=true",
		CancelURL:     u.feURL + "/detail/" + strconv.FormatInt(order.RestaurantID, 10) + "?cancelled=true",
	})
	if err != nil {
		u.logger.Error("create checkout session failed", zap.Int64("order_id", order.ID), zap.Error(err))
		return "", NewHTTPError(http.StatusBadGateway, "payment provider error")
	}

	if err := u.orders.SetCheckoutSession(ctx, order.ID, sess.ID, sess.URL); err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}

	order.CheckoutSessionID = sess.ID
	order.CheckoutURL = sess.URL
	if err := u.events.PublishOrderPlaced(ctx, order); err != nil {
		u.logger.Warn("publish order placed failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	return sess.URL, nil
}

// HandleWebhook は決済プロバイダからの通知を処理する。
func (u *OrderUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid webhook")
	}

	// 関係ないイベントは受け取るだけ
	if ev.Type != PaymentEventCheckoutCompleted {
		u.logger.Debug("webhook ignored", zap.String("type", ev.Type))
		return nil
	}

	order, err := u.orders.FindByID(ctx, ev.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//再送は何もしない
	if order.Status.IsPaid() {
		return nil
	}

	total := order.TotalAmount
	if ev.AmountTotal != nil {
		// 金額は0以上
		if *ev.AmountTotal < 0 {
			u.logger.Warn("negative paid amount", zap.Int64("order_id", order.ID), zap.Int64("paid_total", int64(*ev.AmountTotal)))
			return NewHTTPError(http.StatusBadRequest, "invalid webhook")
		}
		if *ev.AmountTotal != total {
			u.logger.Warn("paid amount differs from order total",
				zap.Int64("order_id", order.ID),
				zap.Int64("order_total", int64(total)),
				zap.Int64("paid_total", int64(*ev.AmountTotal)),
			)
		}
		total = *ev.AmountTotal
	}

	changed, err := u.orders.MarkPaid(ctx, order.ID, total)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//同時に届いた再送などで先に更新されていた
	if !changed {
		return nil
	}

	order.Status = model.OrderStatusPaid
	order.TotalAmount = total
	if err := u.events.PublishOrderPaid(ctx, order); err != nil {
		u.logger.Warn("publish order paid failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	return nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(orders), nil
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//他人の注文は「存在しない扱い」にする
	if o.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return toOrderOutput(o), nil
}

func (u *OrderUsecase) findRestaurant(ctx context.Context, id int64) (model.Restaurant, error) {
	rest, err := u.restaurants.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Restaurant{}, NewHTTPError(http.StatusNotFound, "restaurant not found")
	}
	if err != nil {
		return model.Restaurant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rest, nil
}

// 既存注文をそのまま返す（決済URLも前回のもの）
// 前回セッション作成に失敗していたら、ここで作り直す
func (u *OrderUsecase) replayCheckout(ctx context.Context, o model.Order) (CheckoutOutput, error) {
	summary, err := summarizeOrder(o)
	if err != nil {
		return CheckoutOutput{}, pricingError(err)
	}
	if o.CheckoutURL == "" && o.Status == model.OrderStatusPlaced {
		u.logger.Info("resume checkout session", zap.Int64("order_id", o.ID))
		url, err := u.startCheckout(ctx, o, summary)
		if err != nil {
			return CheckoutOutput{}, err
		}
		o.CheckoutURL = url
	}
	return CheckoutOutput{URL: o.CheckoutURL, OrderID: o.ID, Summary: summary}, nil
}

// メニューの価格でカートを値付けする
func priceCart(rest model.Restaurant, cart []CartItemInput) ([]pricing.Item, error) {
	menu := make(map[int64]model.MenuItem, len(rest.MenuItems))
	for _, mi := range rest.MenuItems {
		menu[mi.ID] = mi
	}

	items := make([]pricing.Item, 0, len(cart))
	for _, c := range cart {
		mi, ok := menu[c.MenuItemID]
		if !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "menu item not found: "+strconv.FormatInt(c.MenuItemID, 10))
		}
		items = append(items, pricing.Item{
			ID:        strconv.FormatInt(mi.ID, 10),
			Name:      mi.Name,
			UnitPrice: mi.Price,
			Quantity:  c.Quantity,
		})
	}
	return items, nil
}

func validateDeliveryDetails(in DeliveryDetailsInput) (model.DeliveryDetails, error) {
	d := model.DeliveryDetails{
		Email:        strings.TrimSpace(in.Email),
		Name:         strings.TrimSpace(in.Name),
		AddressLine1: strings.TrimSpace(in.AddressLine1),
		City:         strings.TrimSpace(in.City),
	}
	if d.Email == "" {
		return d, NewHTTPError(http.StatusBadRequest, "email required")
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return d, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if d.Name == "" {
		return d, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if d.AddressLine1 == "" {
		return d, NewHTTPError(http.StatusBadRequest, "address_line1 required")
	}
	if d.City == "" {
		return d, NewHTTPError(http.StatusBadRequest, "city required")
	}
	return d, nil
}

func newOrder(userID int64, rest model.Restaurant, details model.DeliveryDetails, summary pricing.Summary, key string) model.Order {
	items := make([]model.OrderItem, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		menuItemID, _ := strconv.ParseInt(l.ID, 10, 64)
		items = append(items, model.OrderItem{
			MenuItemID:        menuItemID,
			NameSnapshot:      l.Name,
			UnitPriceSnapshot: l.UnitPrice,
			Quantity:          l.Quantity,
		})
	}

	var keyPtr *string
	if key != "" {
		keyPtr = &key
	}

	return model.Order{
		UserID:          userID,
		RestaurantID:    rest.ID,
		DeliveryDetails: details,
		Status:          model.OrderStatusPlaced,
		DeliveryFee:     summary.DeliveryFee,
		TotalAmount:     summary.Total,
		IdempotencyKey:  keyPtr,
		Items:           items,
	}
}

// 注文のスナップショットから金額をまとめ直す
func summarizeOrder(o model.Order) (pricing.Summary, error) {
	items := make([]pricing.Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, pricing.Item{
			ID:        strconv.FormatInt(it.MenuItemID, 10),
			Name:      it.NameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}
	return pricing.Summarize(items, o.DeliveryFee)
}

func toOrderOutputs(orders []model.Order) []OrderOutput {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		sub, err := pricing.LineSubtotal(pricing.Item{UnitPrice: it.UnitPriceSnapshot, Quantity: it.Quantity})
		if err != nil {
			sub = 0
		}
		items = append(items, OrderItemOutput{
			MenuItemID: it.MenuItemID,
			Name:       it.NameSnapshot,
			UnitPrice:  it.UnitPriceSnapshot,
			Quantity:   it.Quantity,
			Subtotal:   sub,
			Display:    sub.Format(),
		})
	}

	out := OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		RestaurantID:    o.RestaurantID,
		Status:          string(o.Status),
		DeliveryDetails: o.DeliveryDetails,
		Items:           items,
		DeliveryFee:     o.DeliveryFee,
		TotalAmount:     o.TotalAmount,
		TotalDisplay:    o.TotalAmount.Format(),
		CreatedAt:       o.CreatedAt,
	}
	if o.Restaurant != nil {
		out.Restaurant = &OrderRestaurantOutput{
			ID:                    o.Restaurant.ID,
			Name:                  o.Restaurant.Name,
			City:                  o.Restaurant.City,
			ImageURL:              o.Restaurant.ImageURL,
			EstimatedDeliveryTime: o.Restaurant.EstimatedDeliveryTime,
		}
	}
	return out
}
