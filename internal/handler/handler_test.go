package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
	"foodorder/internal/infra/events"
	"foodorder/internal/infra/payment"
	"foodorder/internal/repository"
	"foodorder/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =====================
// fake repositories
// =====================

// 使わないメソッドは埋め込んだnil interfaceに任せる（呼ばれたらpanic）
type fakeRestaurantRepo struct {
	repository.RestaurantRepository
	byID      map[int64]model.Restaurant
	lastQuery repository.RestaurantSearchQuery
	saved     model.Restaurant
}

func (f *fakeRestaurantRepo) FindByID(_ context.Context, id int64) (model.Restaurant, error) {
	r, ok := f.byID[id]
	if !ok {
		return model.Restaurant{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRestaurantRepo) Search(_ context.Context, q repository.RestaurantSearchQuery) ([]model.Restaurant, int64, error) {
	f.lastQuery = q
	out := make([]model.Restaurant, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRestaurantRepo) ListCities(context.Context) ([]string, error) {
	return []string{"London", "Manchester"}, nil
}

type fakeOrderRepo struct {
	repository.OrderRepository
	byID       map[int64]model.Order
	paidWith   map[int64]pricing.Minor
	lastPeriod repository.OrderPeriod
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id int64) (model.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) MarkPaid(_ context.Context, id int64, total pricing.Minor) (bool, error) {
	f.paidWith[id] = total
	return true, nil
}

func testRestaurant() model.Restaurant {
	return model.Restaurant{
		ID:                    3,
		UserID:                100,
		Name:                  "Pizza Place",
		City:                  "London",
		Country:               "UK",
		DeliveryPrice:         250,
		EstimatedDeliveryTime: 30,
		MenuItems: []model.MenuItem{
			{ID: 10, RestaurantID: 3, Name: "Margherita", Price: 600},
			{ID: 11, RestaurantID: 3, Name: "Garlic Bread", Price: 350},
		},
	}
}

type orderFixture struct {
	h       *OrderHandler
	orders  *fakeOrderRepo
	gateway *payment.Gateway
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	orders := &fakeOrderRepo{
		byID: map[int64]model.Order{
			7: {ID: 7, UserID: 1, RestaurantID: 3, Status: model.OrderStatusPlaced, TotalAmount: 1450},
		},
		paidWith: map[int64]pricing.Minor{},
	}
	restaurants := &fakeRestaurantRepo{byID: map[int64]model.Restaurant{3: testRestaurant()}}
	gw := payment.NewGateway("http://localhost:5173", "whsec_test")

	uc := usecase.NewOrderUsecase(nil, orders, restaurants, gw, events.NopPublisher{}, zap.NewNop(), "http://localhost:5173")
	return orderFixture{h: NewOrderHandler(uc), orders: orders, gateway: gw}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =====================
// health
// =====================

func TestHealth(t *testing.T) {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHealthHandler(started)
	h.now = func() time.Time { return started.Add(90*time.Second + 400*time.Millisecond) }

	e := echo.New()
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[HealthResponse](t, rec)
	assert.Equal(t, "health OK!", got.Message)
	assert.Equal(t, int64(90), got.Uptime)
	assert.True(t, got.ServerStartTime.Equal(started))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/health")
}

// =====================
// writeError
// =====================

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "http error", err: usecase.NewHTTPError(http.StatusNotFound, "order not found"), wantStatus: http.StatusNotFound, wantMsg: "order not found"},
		{name: "unknown error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMsg: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeError(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decode[ErrorResponse](t, rec).Error)
		})
	}
}

// =====================
// restaurant
// =====================

func TestRestaurantSearch(t *testing.T) {
	repo := &fakeRestaurantRepo{byID: map[int64]model.Restaurant{3: testRestaurant()}}
	e := echo.New()
	NewRestaurantHandler(usecase.NewRestaurantUsecase(repo)).RegisterRoutes(e)

	t.Run("query params are passed through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/api/restaurant/search/london?searchQuery=pizza&selectedCuisines=Italian,Pasta&sortOption=deliveryPrice&page=2", nil)
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, "london", repo.lastQuery.City)
		assert.Equal(t, "pizza", repo.lastQuery.SearchQuery)
		assert.Equal(t, []string{"Italian", "Pasta"}, repo.lastQuery.SelectedCuisines)
		assert.Equal(t, repository.SortDeliveryPrice, repo.lastQuery.Sort)
		assert.Equal(t, 2, repo.lastQuery.Page)

		got := decode[usecase.RestaurantSearchOutput](t, rec)
		assert.Len(t, got.Data, 1)
		assert.Equal(t, int64(1), got.Pagination.Total)
	})

	t.Run("bad page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurant/search/london?page=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad sort option", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurant/search/london?sortOption=cheapest", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid sortOption", decode[ErrorResponse](t, rec).Error)
	})
}

func TestRestaurantDetailAndCities(t *testing.T) {
	repo := &fakeRestaurantRepo{byID: map[int64]model.Restaurant{3: testRestaurant()}}
	e := echo.New()
	NewRestaurantHandler(usecase.NewRestaurantUsecase(repo)).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurant/3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pizza Place", decode[model.Restaurant](t, rec).Name)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurant/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurant/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// /citiesが/:restaurantIdに吸われない
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurant/cities", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"London", "Manchester"}, decode[[]string](t, rec))
}

// =====================
// order
// =====================

func TestOrderQuote(t *testing.T) {
	f := newOrderFixture(t)
	e := echo.New()

	t.Run("priced from server side menu", func(t *testing.T) {
		body := `{"restaurant_id":3,"cart_items":[{"menu_item_id":10,"quantity":2}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/order/quote", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		require.NoError(t, f.h.quote(e.NewContext(req, rec)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decode[usecase.QuoteOutput](t, rec)
		assert.Equal(t, pricing.Minor(1450), got.Summary.Total)
		assert.Equal(t, "14.50", got.Summary.TotalDisplay)
		require.Len(t, got.Summary.Lines, 1)
		assert.Equal(t, "12.00", got.Summary.Lines[0].Display)
	})

	t.Run("negative quantity", func(t *testing.T) {
		body := `{"restaurant_id":3,"cart_items":[{"menu_item_id":10,"quantity":-1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/order/quote", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		require.NoError(t, f.h.quote(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/order/quote", strings.NewReader(`{"restaurant_id":`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		require.NoError(t, f.h.quote(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid body", decode[ErrorResponse](t, rec).Error)
	})
}

func TestOrderWebhook(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":1450,"metadata":{"orderId":"7"}}}}`)

	t.Run("signed payload marks order paid", func(t *testing.T) {
		f := newOrderFixture(t)
		e := echo.New()

		req := httptest.NewRequest(http.MethodPost, "/api/order/checkout/webhook", strings.NewReader(string(payload)))
		req.Header.Set(webhookSignatureHeader, f.gateway.Sign(payload))
		rec := httptest.NewRecorder()

		require.NoError(t, f.h.webhook(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, pricing.Minor(1450), f.orders.paidWith[7])
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newOrderFixture(t)
		e := echo.New()

		req := httptest.NewRequest(http.MethodPost, "/api/order/checkout/webhook", strings.NewReader(string(payload)))
		req.Header.Set(webhookSignatureHeader, "deadbeef")
		rec := httptest.NewRecorder()

		require.NoError(t, f.h.webhook(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.orders.paidWith)
	})

	t.Run("negative amount", func(t *testing.T) {
		f := newOrderFixture(t)
		e := echo.New()
		neg := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":-500,"metadata":{"orderId":"7"}}}}`)

		req := httptest.NewRequest(http.MethodPost, "/api/order/checkout/webhook", strings.NewReader(string(neg)))
		req.Header.Set(webhookSignatureHeader, f.gateway.Sign(neg))
		rec := httptest.NewRecorder()

		require.NoError(t, f.h.webhook(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.orders.paidWith)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newOrderFixture(t)
		e := echo.New()
		other := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_2","metadata":{"orderId":"999"}}}}`)

		req := httptest.NewRequest(http.MethodPost, "/api/order/checkout/webhook", strings.NewReader(string(other)))
		req.Header.Set(webhookSignatureHeader, f.gateway.Sign(other))
		rec := httptest.NewRecorder()

		require.NoError(t, f.h.webhook(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOrderDetail_RequiresUser(t *testing.T) {
	f := newOrderFixture(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/order/7", nil), rec)
	c.SetParamNames("orderId")
	c.SetParamValues("7")

	require.NoError(t, f.h.detail(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
