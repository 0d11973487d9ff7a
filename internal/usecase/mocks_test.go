package usecase_test

import (
	"context"
	"strings"
	"testing"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
	repo "foodorder/internal/repository"
	"foodorder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders      repo.OrderRepository
	restaurants repo.RestaurantRepository
	auditLogs   repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository           { return r.orders }
func (r *TxReposMock) Restaurants() repo.RestaurantRepository { return r.restaurants }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) SetCheckoutSession(ctx context.Context, orderID int64, sessionID string, url string) error {
	args := m.Called(ctx, orderID, sessionID, url)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID int64, total pricing.Minor) (bool, error) {
	args := m.Called(ctx, orderID, total)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) ListByRestaurantID(ctx context.Context, restaurantID int64, period repo.OrderPeriod) ([]model.Order, error) {
	args := m.Called(ctx, restaurantID, period)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

type RestaurantRepoMock struct{ mock.Mock }

func (m *RestaurantRepoMock) FindByID(ctx context.Context, id int64) (model.Restaurant, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(model.Restaurant)
	return r, args.Error(1)
}

func (m *RestaurantRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Restaurant, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).(model.Restaurant)
	return r, args.Error(1)
}

func (m *RestaurantRepoMock) Create(ctx context.Context, r *model.Restaurant) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *RestaurantRepoMock) Update(ctx context.Context, r *model.Restaurant) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *RestaurantRepoMock) Search(ctx context.Context, q repo.RestaurantSearchQuery) ([]model.Restaurant, int64, error) {
	args := m.Called(ctx, q)
	rs, _ := args.Get(0).([]model.Restaurant)
	return rs, args.Get(1).(int64), args.Error(2)
}

func (m *RestaurantRepoMock) ListCities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	cities, _ := args.Get(0).([]string)
	return cities, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// 外部サービス mocks
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateCheckoutSession(ctx context.Context, req usecase.CheckoutSessionRequest) (usecase.CheckoutSession, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(usecase.CheckoutSession)
	return s, args.Error(1)
}

func (m *GatewayMock) ParseWebhook(payload []byte, signature string) (usecase.PaymentEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(usecase.PaymentEvent)
	return ev, args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishOrderPlaced(ctx context.Context, o model.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *PublisherMock) PublishOrderPaid(ctx context.Context, o model.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *PublisherMock) PublishOrderStatusChanged(ctx context.Context, o model.Order, from model.OrderStatus) error {
	args := m.Called(ctx, o, from)
	return args.Error(0)
}

var (
	_ repo.OrderRepository        = (*OrderRepoMock)(nil)
	_ repo.RestaurantRepository   = (*RestaurantRepoMock)(nil)
	_ repo.AuditLogRepository     = (*AuditRepoMock)(nil)
	_ repo.UserRepository         = (*UserRepoMock)(nil)
	_ usecase.PaymentGateway      = (*GatewayMock)(nil)
	_ usecase.OrderEventPublisher = (*PublisherMock)(nil)
	_ repo.TransactionManager     = (*TxManagerMock)(nil)
)

// =====================
// Helper
// =====================

// HTTPErrorのステータスとメッセージを確認する
func assertHTTPError(t *testing.T, err error, wantStatus int, wantSubstr string) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "err=%v is not HTTPError", err) {
		assert.Equal(t, wantStatus, he.Status)
		assert.True(t, strings.Contains(he.Message, wantSubstr), "msg=%q want contains %q", he.Message, wantSubstr)
	}
}

// テスト用のレストラン（配送料2.50、メニュー2品）
func testRestaurant() model.Restaurant {
	return model.Restaurant{
		ID:                    3,
		UserID:                100,
		Name:                  "Pizza Place",
		City:                  "London",
		Country:               "UK",
		DeliveryPrice:         250,
		EstimatedDeliveryTime: 30,
		Cuisines:              []string{"Pizza", "Italian"},
		MenuItems: []model.MenuItem{
			{ID: 10, RestaurantID: 3, Name: "Margherita", Price: 600},
			{ID: 11, RestaurantID: 3, Name: "Garlic Bread", Price: 350},
		},
	}
}
