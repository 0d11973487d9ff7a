package repository

import (
	"context"
	"errors"

	"foodorder/internal/domain/model"
	"foodorder/internal/domain/pricing"
	repo "foodorder/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func itemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

// 明細も一緒に作成する（同じキーの同時作成はErrConflict）
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Omit("Restaurant").Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByID).
		Preload("Restaurant").
		First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByID).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) SetCheckoutSession(ctx context.Context, orderID int64, sessionID string, url string) error {
	return r.updateColumns(ctx, orderID, map[string]interface{}{
		"checkout_session_id": sessionID,
		"checkout_url":        url,
	})
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return r.updateColumns(ctx, orderID, map[string]interface{}{
		"status": status,
	})
}

// 決済完了（金額は決済プロバイダが確定した値）
// placed以外（オーナーが先に進めた注文など）は上書きしない
func (r *OrderGormRepository) MarkPaid(ctx context.Context, orderID int64, total pricing.Minor) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPlaced).
		Updates(map[string]interface{}{
			"status":       model.OrderStatusPaid,
			"total_amount": total,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// 0件: 存在しないか、既に決済済み
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, repo.ErrNotFound
	}
	return false, nil
}

func (r *OrderGormRepository) updateColumns(ctx context.Context, orderID int64, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 新しい順
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByID).
		Preload("Restaurant").
		Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

func (r *OrderGormRepository) ListByRestaurantID(ctx context.Context, restaurantID int64, period repo.OrderPeriod) ([]model.Order, error) {
	tx := r.db.WithContext(ctx).
		Preload("Items", itemsByID).
		Where("restaurant_id = ?", restaurantID)

	if period.From != nil {
		tx = tx.Where("created_at >= ?", *period.From)
	}
	if period.To != nil {
		tx = tx.Where("created_at <= ?", *period.To)
	}

	orders := []model.Order{}
	if err := tx.Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}
