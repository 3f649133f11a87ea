package ledger

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	"gitee.com/flycash/alert-engine/internal/repository"
)

// Service 发送台账服务接口。
// 台账是审计的唯一事实来源：每一次发送决定，不管成功失败跳过，都要落一条记录。
type Service interface {
	// AlreadyAlerted 判断 (计划, 实体) 在 since 之后是否已有成功记录。
	// 这是幂等性的唯一闸门，发送前必须再查一次，不能只依赖批量筛选时的结果。
	AlreadyAlerted(ctx context.Context, scheduleID, entityID int64, since time.Time) (bool, error)
	// Record 追加一条发送记录，任何结果都不允许跳过
	Record(ctx context.Context, record domain.DeliveryRecord) error
	// ListHistory 查询发送历史
	ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.DeliveryRecord, error)
}

type service struct {
	repo repository.DeliveryRecordRepository
}

func NewService(repo repository.DeliveryRecordRepository) Service {
	return &service{repo: repo}
}

func (s *service) AlreadyAlerted(ctx context.Context, scheduleID, entityID int64, since time.Time) (bool, error) {
	if scheduleID <= 0 || entityID <= 0 {
		return false, fmt.Errorf("%w: scheduleID = %d, entityID = %d", errs.ErrInvalidParameter, scheduleID, entityID)
	}
	return s.repo.ExistsSentSince(ctx, scheduleID, entityID, since)
}

func (s *service) Record(ctx context.Context, record domain.DeliveryRecord) error {
	if record.ScheduleID <= 0 || record.EntityID <= 0 {
		return fmt.Errorf("%w: scheduleID = %d, entityID = %d", errs.ErrInvalidParameter, record.ScheduleID, record.EntityID)
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *service) ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.DeliveryRecord, error) {
	return s.repo.Find(ctx, filter)
}
