package usecase

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
	repo "foodorder/internal/repository"
)

const topMenuItemsLimit = 5

// 売上の集計（オーナー向け）
type AnalyticsUsecase struct {
	restaurants repo.RestaurantRepository
	orders      repo.OrderRepository
}

func NewAnalyticsUsecase(restaurants repo.RestaurantRepository, orders repo.OrderRepository) *AnalyticsUsecase {
	return &AnalyticsUsecase{restaurants: restaurants, orders: orders}
}

type InsightsInput struct {
	From *time.Time
	To   *time.Time
}

type MoneyOutput struct {
	Amount  pricing.Minor `json:"amount"`
	Display string        `json:"display"`
}

type TopMenuItem struct {
	MenuItemID int64       `json:"menu_item_id"`
	Name       string      `json:"name"`
	Quantity   int64       `json:"quantity"`
	Revenue    MoneyOutput `json:"revenue"`
}

type BusinessInsights struct {
	RestaurantID      int64          `json:"restaurant_id"`
	TotalOrders       int            `json:"total_orders"`
	PaidOrders        int            `json:"paid_orders"`
	Revenue           MoneyOutput    `json:"revenue"`
	AverageOrderValue MoneyOutput    `json:"average_order_value"`
	OrdersByStatus    map[string]int `json:"orders_by_status"`
	TopMenuItems      []TopMenuItem  `json:"top_menu_items"`
	From              *time.Time     `json:"from,omitempty"`
	To                *time.Time     `json:"to,omitempty"`
}

func (u *AnalyticsUsecase) GetBusinessInsights(ctx context.Context, userID int64, in InsightsInput) (BusinessInsights, error) {
	if userID <= 0 {
		return BusinessInsights{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return BusinessInsights{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	rest, err := u.restaurants.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return BusinessInsights{}, NewHTTPError(http.StatusNotFound, "restaurant not found")
	}
	if err != nil {
		return BusinessInsights{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	orders, err := u.orders.ListByRestaurantID(ctx, rest.ID, repo.OrderPeriod{From: in.From, To: in.To})
	if err != nil {
		return BusinessInsights{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out, err := summarizeInsights(orders)
	if err != nil {
		return BusinessInsights{}, pricingError(err)
	}
	out.RestaurantID = rest.ID
	out.From = in.From
	out.To = in.To
	return out, nil
}

type menuAgg struct {
	id       int64
	name     string
	quantity int64
	revenue  pricing.Minor
}

// 決済済み（placed以外）の注文だけを売上に数える
func summarizeInsights(orders []model.Order) (BusinessInsights, error) {
	out := BusinessInsights{
		TotalOrders:    len(orders),
		OrdersByStatus: map[string]int{},
		TopMenuItems:   []TopMenuItem{},
	}

	var revenue pricing.Minor
	byItem := map[int64]*menuAgg{}

	for _, o := range orders {
		out.OrdersByStatus[string(o.Status)]++
		if !o.Status.IsPaid() {
			continue
		}
		out.PaidOrders++

		var err error
		if revenue, err = revenue.Add(o.TotalAmount); err != nil {
			return BusinessInsights{}, err
		}

		for _, it := range o.Items {
			sub, err := pricing.LineSubtotal(pricing.Item{UnitPrice: it.UnitPriceSnapshot, Quantity: it.Quantity})
			if err != nil {
				return BusinessInsights{}, err
			}
			agg, ok := byItem[it.MenuItemID]
			if !ok {
				agg = &menuAgg{id: it.MenuItemID, name: it.NameSnapshot}
				byItem[it.MenuItemID] = agg
			}
			agg.quantity += it.Quantity
			if agg.revenue, err = agg.revenue.Add(sub); err != nil {
				return BusinessInsights{}, err
			}
		}
	}

	out.Revenue = MoneyOutput{Amount: revenue, Display: revenue.Format()}

	var avg pricing.Minor
	if out.PaidOrders > 0 {
		avg = revenue / pricing.Minor(out.PaidOrders)
	}
	out.AverageOrderValue = MoneyOutput{Amount: avg, Display: avg.Format()}

	aggs := make([]*menuAgg, 0, len(byItem))
	for _, a := range byItem {
		aggs = append(aggs, a)
	}
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].quantity != aggs[j].quantity {
			return aggs[i].quantity > aggs[j].quantity
		}
		return aggs[i].id < aggs[j].id
	})
	if len(aggs) > topMenuItemsLimit {
		aggs = aggs[:topMenuItemsLimit]
	}
	for _, a := range aggs {
		out.TopMenuItems = append(out.TopMenuItems, TopMenuItem{
			MenuItemID: a.id,
			Name:       a.name,
			Quantity:   a.quantity,
			Revenue:    MoneyOutput{Amount: a.revenue, Display: a.revenue.Format()},
		})
	}
	return out, nil
}
