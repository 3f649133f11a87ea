package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/errs"
	"gorm.io/gorm"
)

// AlertSchedule 告警计划表
type AlertSchedule struct {
	ID                int64  `gorm:"primaryKey;autoIncrement;comment:'告警计划ID'"`
	Name              string `gorm:"type:VARCHAR(128);NOT NULL;comment:'计划名称'"`
	AlertType         string `gorm:"type:ENUM('LICENSE_EXPIRY','INVENTORY_LOW','SYSTEM_NOTICE');NOT NULL;comment:'告警类型'"`
	TriggerWindowDays int    `gorm:"type:INT;NOT NULL;comment:'触发窗口天数'"`
	FrequencyDays     int    `gorm:"type:INT;NOT NULL;DEFAULT:1;comment:'同一实体重复告警最小间隔天数'"`
	TemplateID        int64  `gorm:"type:BIGINT;NOT NULL;comment:'消息模板ID'"`
	StationFilter     string `gorm:"type:VARCHAR(32);NOT NULL;DEFAULT:'ALL';comment:'站点过滤，ALL表示全部'"`
	IsActive          bool   `gorm:"type:TINYINT(1);NOT NULL;DEFAULT:1;index:idx_active_next_run,priority:1;comment:'是否启用，历史记录引用期间只允许停用不允许删除'"`
	LastRun           int64  `gorm:"type:BIGINT;NOT NULL;DEFAULT:0;comment:'上次执行时间毫秒数，0表示从未执行'"`
	NextRun           int64  `gorm:"type:BIGINT;NOT NULL;index:idx_active_next_run,priority:2;comment:'下次执行时间毫秒数'"`
	Ctime             int64
	Utime             int64
}

// TableName 重命名表
func (AlertSchedule) TableName() string {
	return "alert_schedules"
}

// AlertScheduleDAO 告警计划数据访问对象接口
type AlertScheduleDAO interface {
	// Create 创建计划
	Create(ctx context.Context, schedule AlertSchedule) (AlertSchedule, error)
	// Update 更新计划的规则字段
	Update(ctx context.Context, schedule AlertSchedule) error
	// FindByID 根据ID查找计划
	FindByID(ctx context.Context, id int64) (AlertSchedule, error)
	// FindDue 查找到期待执行的启用计划
	FindDue(ctx context.Context, now time.Time, limit int) ([]AlertSchedule, error)
	// List 列出全部计划
	List(ctx context.Context, offset, limit int) ([]AlertSchedule, error)
	// UpdateRunTime 推进计划时钟
	UpdateRunTime(ctx context.Context, id int64, lastRun, nextRun time.Time) error
	// SetActive 启停计划
	SetActive(ctx context.Context, id int64, active bool) error
}

type alertScheduleDAO struct {
	db *gorm.DB
}

func NewAlertScheduleDAO(db *gorm.DB) AlertScheduleDAO {
	return &alertScheduleDAO{db: db}
}

func (d *alertScheduleDAO) Create(ctx context.Context, schedule AlertSchedule) (AlertSchedule, error) {
	now := time.Now().UnixMilli()
	schedule.Ctime, schedule.Utime = now, now
	err := d.db.WithContext(ctx).Create(&schedule).Error
	if err != nil {
		return AlertSchedule{}, err
	}
	return schedule, nil
}

func (d *alertScheduleDAO) Update(ctx context.Context, schedule AlertSchedule) error {
	result := d.db.WithContext(ctx).Model(&AlertSchedule{}).
		Where("id = ?", schedule.ID).
		Updates(map[string]any{
			"name":                schedule.Name,
			"alert_type":          schedule.AlertType,
			"trigger_window_days": schedule.TriggerWindowDays,
			"frequency_days":      schedule.FrequencyDays,
			"template_id":         schedule.TemplateID,
			"station_filter":      schedule.StationFilter,
			"utime":               time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrScheduleNotFound, schedule.ID)
	}
	return nil
}

func (d *alertScheduleDAO) FindByID(ctx context.Context, id int64) (AlertSchedule, error) {
	var schedule AlertSchedule
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AlertSchedule{}, fmt.Errorf("%w: id = %d", errs.ErrScheduleNotFound, id)
		}
		return AlertSchedule{}, err
	}
	return schedule, nil
}

func (d *alertScheduleDAO) FindDue(ctx context.Context, now time.Time, limit int) ([]AlertSchedule, error) {
	var schedules []AlertSchedule
	err := d.db.WithContext(ctx).
		Where("is_active = ? AND next_run <= ?", true, now.UnixMilli()).
		Order("next_run ASC").
		Limit(limit).
		Find(&schedules).Error
	return schedules, err
}

func (d *alertScheduleDAO) List(ctx context.Context, offset, limit int) ([]AlertSchedule, error) {
	var schedules []AlertSchedule
	err := d.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&schedules).Error
	return schedules, err
}

func (d *alertScheduleDAO) UpdateRunTime(ctx context.Context, id int64, lastRun, nextRun time.Time) error {
	result := d.db.WithContext(ctx).Model(&AlertSchedule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_run": lastRun.UnixMilli(),
			"next_run": nextRun.UnixMilli(),
			"utime":    time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrScheduleNotFound, id)
	}
	return nil
}

func (d *alertScheduleDAO) SetActive(ctx context.Context, id int64, active bool) error {
	result := d.db.WithContext(ctx).Model(&AlertSchedule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active": active,
			"utime":     time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrScheduleNotFound, id)
	}
	return nil
}
