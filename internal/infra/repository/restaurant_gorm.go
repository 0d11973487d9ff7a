package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodorder/internal/domain/model"
	repo "foodorder/internal/repository"

	"gorm.io/gorm"
)

type RestaurantGormRepository struct {
	db *gorm.DB
}

// DI
func NewRestaurantGormRepository(db *gorm.DB) *RestaurantGormRepository {
	return &RestaurantGormRepository{db: db}
}

func (r *RestaurantGormRepository) FindByID(ctx context.Context, id int64) (model.Restaurant, error) {
	var rest model.Restaurant
	err := r.db.WithContext(ctx).
		Preload("MenuItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&rest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Restaurant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Restaurant{}, err
	}
	return rest, nil
}

func (r *RestaurantGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Restaurant, error) {
	var rest model.Restaurant
	err := r.db.WithContext(ctx).
		Preload("MenuItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("user_id = ?", userID).
		First(&rest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Restaurant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Restaurant{}, err
	}
	return rest, nil
}

// メニューも一緒に作成
func (r *RestaurantGormRepository) Create(ctx context.Context, rest *model.Restaurant) error {
	if err := r.db.WithContext(ctx).Create(rest).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

// 本体を更新し、メニューをidで同期する
func (r *RestaurantGormRepository) Update(ctx context.Context, rest *model.Restaurant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Restaurant{}).
			Where("id = ?", rest.ID).
			Updates(map[string]interface{}{
				"name":                    rest.Name,
				"city":                    rest.City,
				"country":                 rest.Country,
				"delivery_price":          rest.DeliveryPrice,
				"estimated_delivery_time": rest.EstimatedDeliveryTime,
				"cuisines":                rest.Cuisines,
				"image_url":               rest.ImageURL,
				"updated_at":              time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		return syncMenuItems(tx, rest)
	})
}

// メニューはidで突き合わせる。idありは更新、なしは追加、リストに無いものは削除
// （カートや売上集計がmenu_item_idを参照するので、残るメニューのidは変えない）
func syncMenuItems(tx *gorm.DB, rest *model.Restaurant) error {
	keep := make([]int64, 0, len(rest.MenuItems))
	for _, mi := range rest.MenuItems {
		if mi.ID > 0 {
			keep = append(keep, mi.ID)
		}
	}

	del := tx.Where("restaurant_id = ?", rest.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&model.MenuItem{}).Error; err != nil {
		return err
	}

	for i := range rest.MenuItems {
		mi := &rest.MenuItems[i]
		mi.RestaurantID = rest.ID
		if mi.ID == 0 {
			if err := tx.Create(mi).Error; err != nil {
				return err
			}
			continue
		}

		res := tx.Model(&model.MenuItem{}).
			Where("id = ? AND restaurant_id = ?", mi.ID, rest.ID).
			Updates(map[string]interface{}{
				"name":  mi.Name,
				"price": mi.Price,
			})
		if res.Error != nil {
			return res.Error
		}
		//他店舗のidは受け付けない
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
	}
	return nil
}

// 都市・キーワード・料理ジャンル・ソート・ページング付きで検索する。
func (r *RestaurantGormRepository) Search(ctx context.Context, q repo.RestaurantSearchQuery) ([]model.Restaurant, int64, error) {
	var restaurants []model.Restaurant
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Restaurant{})

	if city := strings.TrimSpace(q.City); city != "" {
		tx = tx.Where("lower(city) = lower(?)", city)
	}

	// 店名 or ジャンルの部分一致
	if s := strings.TrimSpace(q.SearchQuery); s != "" {
		like := "%" + escapeLike(s) + "%"
		tx = tx.Where("(name ILIKE ? OR EXISTS (SELECT 1 FROM unnest(cuisines) AS c WHERE c ILIKE ?))", like, like)
	}

	// 選択したジャンルは全部含む
	for _, c := range q.SelectedCuisines {
		tx = tx.Where("EXISTS (SELECT 1 FROM unnest(cuisines) AS c WHERE lower(c) = lower(?))", c)
	}

	tx = tx.Session(&gorm.Session{})

	if err := tx.Count(&total).Error; err != nil {
		return []model.Restaurant{}, 0, err
	}

	switch q.Sort {
	case repo.SortDeliveryPrice:
		tx = tx.Order("delivery_price asc").Order("id asc")
	case repo.SortEstimatedDeliveryTime:
		tx = tx.Order("estimated_delivery_time asc").Order("id asc")
	default:
		tx = tx.Order("updated_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.
		Preload("MenuItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Offset(offset).
		Limit(q.Limit).
		Find(&restaurants).Error; err != nil {
		return []model.Restaurant{}, 0, err
	}

	return restaurants, total, nil
}

func (r *RestaurantGormRepository) ListCities(ctx context.Context) ([]string, error) {
	cities := []string{}
	err := r.db.WithContext(ctx).
		Model(&model.Restaurant{}).
		Distinct("city").
		Order("city asc").
		Pluck("city", &cities).Error
	if err != nil {
		return []string{}, err
	}
	return cities, nil
}

// ILIKEのワイルドカードをエスケープ
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
