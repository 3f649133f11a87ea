package repository

import (
	"context"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
)

const defaultHistoryLimit = 100

// DeliveryRecordRepository 发送记录仓储接口，只追加
type DeliveryRecordRepository interface {
	// Create 追加一条发送记录
	Create(ctx context.Context, record domain.DeliveryRecord) (domain.DeliveryRecord, error)
	// ExistsSentSince 去重查询：窗口内是否已有成功记录
	ExistsSentSince(ctx context.Context, scheduleID, entityID int64, since time.Time) (bool, error)
	// Find 按条件查询发送历史
	Find(ctx context.Context, filter domain.HistoryFilter) ([]domain.DeliveryRecord, error)
}

type deliveryRecordRepository struct {
	dao dao.DeliveryRecordDAO
}

func NewDeliveryRecordRepository(d dao.DeliveryRecordDAO) DeliveryRecordRepository {
	return &deliveryRecordRepository{dao: d}
}

func (r *deliveryRecordRepository) Create(ctx context.Context, record domain.DeliveryRecord) (domain.DeliveryRecord, error) {
	created, err := r.dao.Create(ctx, r.toEntity(record))
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	return r.toDomain(created), nil
}

func (r *deliveryRecordRepository) ExistsSentSince(ctx context.Context, scheduleID, entityID int64, since time.Time) (bool, error) {
	return r.dao.ExistsSentSince(ctx, scheduleID, entityID, since)
}

func (r *deliveryRecordRepository) Find(ctx context.Context, filter domain.HistoryFilter) ([]domain.DeliveryRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	records, err := r.dao.Find(ctx, filter.ScheduleID, filter.EntityID, string(filter.Status), filter.Since, limit)
	if err != nil {
		return nil, err
	}
	return slice.Map(records, func(_ int, src dao.DeliveryRecord) domain.DeliveryRecord {
		return r.toDomain(src)
	}), nil
}

func (r *deliveryRecordRepository) toDomain(d dao.DeliveryRecord) domain.DeliveryRecord {
	return domain.DeliveryRecord{
		ID:         d.ID,
		ScheduleID: d.ScheduleID,
		EntityID:   d.EntityID,
		Recipient:  d.Recipient,
		Body:       d.Body,
		Provider:   d.Provider,
		Status:     domain.DeliveryStatus(d.Status),
		ErrorKind:  domain.ErrorKind(d.ErrorKind),
		Cost:       d.Cost,
		Ctime:      time.UnixMilli(d.Ctime),
	}
}

func (r *deliveryRecordRepository) toEntity(record domain.DeliveryRecord) dao.DeliveryRecord {
	entity := dao.DeliveryRecord{
		ID:         record.ID,
		ScheduleID: record.ScheduleID,
		EntityID:   record.EntityID,
		Recipient:  record.Recipient,
		Body:       record.Body,
		Provider:   record.Provider,
		Status:     string(record.Status),
		ErrorKind:  string(record.ErrorKind),
		Cost:       record.Cost,
	}
	if !record.Ctime.IsZero() {
		entity.Ctime = record.Ctime.UnixMilli()
	}
	// 成功记录带上所属日期，触发存储层的去重唯一索引
	if record.Status == domain.DeliveryStatusSent {
		day := record.Ctime
		if day.IsZero() {
			day = time.Now()
		}
		sentDay := day.Format(QuotaDayLayout)
		entity.SentDay = &sentDay
	}
	return entity
}
