package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"foodorder/internal/domain/model"
	repo "foodorder/internal/repository"
)

// 管理者向けの監査ログ参照
type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

// 0 / nil の項目は絞り込まない
type ListAuditLogsInput struct {
	ActorUserID  int64
	Action       string
	ResourceType string
	ResourceID   int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

func (u *AuditUsecase) List(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if in.Limit < 0 || in.Limit > repo.MaxAuditLimit {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	if in.ActorUserID < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid actor_user_id")
	}
	if in.ResourceID < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid resource_id")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	f := repo.AuditLogFilter{
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.ActorUserID > 0 {
		f.ActorUserID = &in.ActorUserID
	}
	if in.ResourceID > 0 {
		f.ResourceID = &in.ResourceID
	}

	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(a)
		switch action {
		case model.AuditActionUpdateOrderStatus, model.AuditActionCreateRestaurant, model.AuditActionUpdateRestaurant:
		default:
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &action
	}
	if rt := strings.TrimSpace(in.ResourceType); rt != "" {
		resource := model.AuditResourceType(rt)
		switch resource {
		case model.AuditResourceOrder, model.AuditResourceRestaurant:
		default:
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &resource
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
