package repository

import (
	"context"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
)

// AlertScheduleRepository 告警计划仓储接口
type AlertScheduleRepository interface {
	// Create 创建计划
	Create(ctx context.Context, schedule domain.AlertSchedule) (domain.AlertSchedule, error)
	// Update 更新计划的规则字段
	Update(ctx context.Context, schedule domain.AlertSchedule) error
	// FindByID 根据ID查找计划
	FindByID(ctx context.Context, id int64) (domain.AlertSchedule, error)
	// FindDue 查找到期待执行的启用计划
	FindDue(ctx context.Context, now time.Time, limit int) ([]domain.AlertSchedule, error)
	// List 列出全部计划
	List(ctx context.Context, offset, limit int) ([]domain.AlertSchedule, error)
	// AdvanceClock 推进计划时钟
	AdvanceClock(ctx context.Context, id int64, lastRun, nextRun time.Time) error
	// SetActive 启停计划，删除只允许软停用
	SetActive(ctx context.Context, id int64, active bool) error
}

type alertScheduleRepository struct {
	dao dao.AlertScheduleDAO
}

func NewAlertScheduleRepository(d dao.AlertScheduleDAO) AlertScheduleRepository {
	return &alertScheduleRepository{dao: d}
}

func (r *alertScheduleRepository) Create(ctx context.Context, schedule domain.AlertSchedule) (domain.AlertSchedule, error) {
	created, err := r.dao.Create(ctx, r.toEntity(schedule))
	if err != nil {
		return domain.AlertSchedule{}, err
	}
	return r.toDomain(created), nil
}

func (r *alertScheduleRepository) Update(ctx context.Context, schedule domain.AlertSchedule) error {
	return r.dao.Update(ctx, r.toEntity(schedule))
}

func (r *alertScheduleRepository) FindByID(ctx context.Context, id int64) (domain.AlertSchedule, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.AlertSchedule{}, err
	}
	return r.toDomain(found), nil
}

func (r *alertScheduleRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.AlertSchedule, error) {
	schedules, err := r.dao.FindDue(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	return slice.Map(schedules, func(_ int, src dao.AlertSchedule) domain.AlertSchedule {
		return r.toDomain(src)
	}), nil
}

func (r *alertScheduleRepository) List(ctx context.Context, offset, limit int) ([]domain.AlertSchedule, error) {
	schedules, err := r.dao.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return slice.Map(schedules, func(_ int, src dao.AlertSchedule) domain.AlertSchedule {
		return r.toDomain(src)
	}), nil
}

func (r *alertScheduleRepository) AdvanceClock(ctx context.Context, id int64, lastRun, nextRun time.Time) error {
	return r.dao.UpdateRunTime(ctx, id, lastRun, nextRun)
}

func (r *alertScheduleRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.dao.SetActive(ctx, id, active)
}

func (r *alertScheduleRepository) toDomain(d dao.AlertSchedule) domain.AlertSchedule {
	schedule := domain.AlertSchedule{
		ID:                d.ID,
		Name:              d.Name,
		AlertType:         domain.AlertType(d.AlertType),
		TriggerWindowDays: d.TriggerWindowDays,
		FrequencyDays:     d.FrequencyDays,
		TemplateID:        d.TemplateID,
		StationFilter:     d.StationFilter,
		IsActive:          d.IsActive,
		NextRun:           time.UnixMilli(d.NextRun),
	}
	if d.LastRun > 0 {
		schedule.LastRun = time.UnixMilli(d.LastRun)
	}
	return schedule
}

func (r *alertScheduleRepository) toEntity(schedule domain.AlertSchedule) dao.AlertSchedule {
	entity := dao.AlertSchedule{
		ID:                schedule.ID,
		Name:              schedule.Name,
		AlertType:         string(schedule.AlertType),
		TriggerWindowDays: schedule.TriggerWindowDays,
		FrequencyDays:     schedule.FrequencyDays,
		TemplateID:        schedule.TemplateID,
		StationFilter:     schedule.StationFilter,
		IsActive:          schedule.IsActive,
		NextRun:           schedule.NextRun.UnixMilli(),
	}
	if !schedule.LastRun.IsZero() {
		entity.LastRun = schedule.LastRun.UnixMilli()
	}
	return entity
}
