package repository

import (
	"context"
	"time"

	"foodorder/internal/domain/model"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

// 監査ログの絞り込み。nilの項目は条件にしない。
// actorは操作したオーナー/管理者、resourceは注文か店舗（ResourceIDはその id）。
// 期間はcreated_atの両端を含む。
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// Page は範囲外のlimit/offsetを既定値に丸める
func (f AuditLogFilter) Page() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > MaxAuditLimit {
		limit = DefaultAuditLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// 注文ステータス変更と店舗の作成/更新を記録する。一覧は新しい順
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
