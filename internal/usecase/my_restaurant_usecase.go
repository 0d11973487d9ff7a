package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
	repo "foodorder/internal/repository"

	"go.uber.org/zap"
)

// オーナー向け（/api/my/restaurant）
type MyRestaurantUsecase struct {
	tx          repo.TransactionManager
	restaurants repo.RestaurantRepository
	orders      repo.OrderRepository
	events      OrderEventPublisher
	logger      *zap.Logger
}

func NewMyRestaurantUsecase(
	tx repo.TransactionManager,
	restaurants repo.RestaurantRepository,
	orders repo.OrderRepository,
	events OrderEventPublisher,
	logger *zap.Logger,
) *MyRestaurantUsecase {
	return &MyRestaurantUsecase{
		tx:          tx,
		restaurants: restaurants,
		orders:      orders,
		events:      events,
		logger:      logger,
	}
}

// ID>0 は既存メニューの更新、0 は追加
type MenuItemInput struct {
	ID    int64
	Name  string
	Price pricing.Minor
}

type RestaurantInput struct {
	Name                  string
	City                  string
	Country               string
	DeliveryPrice         pricing.Minor
	EstimatedDeliveryTime int
	Cuisines              []string
	MenuItems             []MenuItemInput
	ImageURL              string
}

type UpdateOrderStatusInput struct {
	Status string
}

func (u *MyRestaurantUsecase) GetMyRestaurant(ctx context.Context, userID int64) (model.Restaurant, error) {
	if userID <= 0 {
		return model.Restaurant{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	r, err := u.restaurants.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Restaurant{}, NewHTTPError(http.StatusNotFound, "restaurant not found")
	}
	if err != nil {
		return model.Restaurant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return r, nil
}

func (u *MyRestaurantUsecase) CreateMyRestaurant(ctx context.Context, userID int64, in RestaurantInput) (model.Restaurant, error) {
	if userID <= 0 {
		return model.Restaurant{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in, err := normalizeRestaurantInput(in)
	if err != nil {
		return model.Restaurant{}, err
	}

	var created model.Restaurant
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//1ユーザー1店舗
		_, err := r.Restaurants().FindByUserID(ctx, userID)
		if err == nil {
			return NewHTTPError(http.StatusConflict, "user restaurant already exists")
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created = model.Restaurant{UserID: userID}
		applyRestaurantInput(&created, in)
		//新規作成ではidを使わない
		for i := range created.MenuItems {
			created.MenuItems[i].ID = 0
		}
		if err := r.Restaurants().Create(ctx, &created); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return NewHTTPError(http.StatusConflict, "user restaurant already exists")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  userID,
			Action:       model.AuditActionCreateRestaurant,
			ResourceType: model.AuditResourceRestaurant,
			ResourceID:   created.ID,
			AfterJSON:    toJSON(restaurantAudit(created)),
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Restaurant{}, err
		}
		return model.Restaurant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *MyRestaurantUsecase) UpdateMyRestaurant(ctx context.Context, userID int64, in RestaurantInput) (model.Restaurant, error) {
	if userID <= 0 {
		return model.Restaurant{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in, err := normalizeRestaurantInput(in)
	if err != nil {
		return model.Restaurant{}, err
	}

	var updated model.Restaurant
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		current, err := r.Restaurants().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "restaurant not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := checkMenuItemIDs(current.MenuItems, in.MenuItems); err != nil {
			return err
		}

		before := restaurantAudit(current)
		updated = current
		applyRestaurantInput(&updated, in)
		if err := r.Restaurants().Update(ctx, &updated); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  userID,
			Action:       model.AuditActionUpdateRestaurant,
			ResourceType: model.AuditResourceRestaurant,
			ResourceID:   updated.ID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(restaurantAudit(updated)),
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Restaurant{}, err
		}
		return model.Restaurant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

// 自店舗の注文一覧（新しい順）
func (u *MyRestaurantUsecase) ListMyRestaurantOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	rest, err := u.GetMyRestaurant(ctx, userID)
	if err != nil {
		return []OrderOutput{}, err
	}

	orders, err := u.orders.ListByRestaurantID(ctx, rest.ID, repo.OrderPeriod{})
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(orders), nil
}

// UpdateOrderStatus は自店舗の注文だけステータスを変えられる。
func (u *MyRestaurantUsecase) UpdateOrderStatus(ctx context.Context, userID int64, orderID int64, in UpdateOrderStatusInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	newStatus, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		order      model.Order
		fromStatus model.OrderStatus
		changed    bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		rest, err := r.Restaurants().FindByID(ctx, o.RestaurantID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//他店の注文は触らせない
		if err != nil || rest.UserID != userID {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		order = o
		fromStatus = o.Status

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order.Status = newStatus
		changed = true

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  userID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   toJSON(map[string]string{"status": string(fromStatus)}),
			AfterJSON:    toJSON(map[string]string{"status": string(newStatus)}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed {
		if err := u.events.PublishOrderStatusChanged(ctx, order, fromStatus); err != nil {
			u.logger.Warn("publish order status changed failed", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
	return toOrderOutput(order), nil
}

func normalizeRestaurantInput(in RestaurantInput) (RestaurantInput, error) {
	out := RestaurantInput{
		Name:                  strings.TrimSpace(in.Name),
		City:                  strings.TrimSpace(in.City),
		Country:               strings.TrimSpace(in.Country),
		DeliveryPrice:         in.DeliveryPrice,
		EstimatedDeliveryTime: in.EstimatedDeliveryTime,
		ImageURL:              strings.TrimSpace(in.ImageURL),
	}

	switch {
	case out.Name == "":
		return out, NewHTTPError(http.StatusBadRequest, "name required")
	case out.City == "":
		return out, NewHTTPError(http.StatusBadRequest, "city required")
	case out.Country == "":
		return out, NewHTTPError(http.StatusBadRequest, "country required")
	case out.DeliveryPrice < 0:
		return out, NewHTTPError(http.StatusBadRequest, "delivery_price must be >= 0")
	case out.EstimatedDeliveryTime < 1:
		return out, NewHTTPError(http.StatusBadRequest, "estimated_delivery_time must be >= 1")
	}

	for _, c := range in.Cuisines {
		if c = strings.TrimSpace(c); c != "" {
			out.Cuisines = append(out.Cuisines, c)
		}
	}
	if len(out.Cuisines) == 0 {
		return out, NewHTTPError(http.StatusBadRequest, "cuisines required")
	}

	for _, mi := range in.MenuItems {
		name := strings.TrimSpace(mi.Name)
		if name == "" {
			return out, NewHTTPError(http.StatusBadRequest, "menu item name required")
		}
		if mi.Price < 0 {
			return out, NewHTTPError(http.StatusBadRequest, "menu item price must be >= 0")
		}
		if mi.ID < 0 {
			return out, NewHTTPError(http.StatusBadRequest, "invalid menu item id")
		}
		out.MenuItems = append(out.MenuItems, MenuItemInput{ID: mi.ID, Name: name, Price: mi.Price})
	}
	return out, nil
}

func applyRestaurantInput(r *model.Restaurant, in RestaurantInput) {
	r.Name = in.Name
	r.City = in.City
	r.Country = in.Country
	r.DeliveryPrice = in.DeliveryPrice
	r.EstimatedDeliveryTime = in.EstimatedDeliveryTime
	r.Cuisines = in.Cuisines
	r.ImageURL = in.ImageURL

	r.MenuItems = make([]model.MenuItem, 0, len(in.MenuItems))
	for _, mi := range in.MenuItems {
		r.MenuItems = append(r.MenuItems, model.MenuItem{
			ID:           mi.ID,
			RestaurantID: r.ID,
			Name:         mi.Name,
			Price:        mi.Price,
		})
	}
}

// 更新で指定されたidが自店舗のメニューか確認する（重複も不可）
func checkMenuItemIDs(current []model.MenuItem, items []MenuItemInput) error {
	owned := make(map[int64]bool, len(current))
	for _, mi := range current {
		owned[mi.ID] = true
	}
	seen := make(map[int64]bool, len(items))
	for _, mi := range items {
		if mi.ID == 0 {
			continue
		}
		if !owned[mi.ID] || seen[mi.ID] {
			return NewHTTPError(http.StatusBadRequest, "invalid menu item id")
		}
		seen[mi.ID] = true
	}
	return nil
}

// 監査ログに残す項目（メニューは件数だけ）
func restaurantAudit(r model.Restaurant) map[string]any {
	return map[string]any{
		"name":                    r.Name,
		"city":                    r.City,
		"country":                 r.Country,
		"delivery_price":          r.DeliveryPrice,
		"estimated_delivery_time": r.EstimatedDeliveryTime,
		"cuisines":                []string(r.Cuisines),
		"menu_items":              len(r.MenuItems),
	}
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
