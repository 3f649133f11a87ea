package domain

import (
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/errs"
)

// AlertType 告警类型
type AlertType string

const (
	AlertTypeLicenseExpiry AlertType = "LICENSE_EXPIRY" // 证照到期
	AlertTypeInventoryLow  AlertType = "INVENTORY_LOW"  // 库存不足
	AlertTypeSystemNotice  AlertType = "SYSTEM_NOTICE"  // 系统通知
)

// ScheduleStatus 计划状态，DUE 是派生状态，不落库
type ScheduleStatus string

const (
	ScheduleStatusActive ScheduleStatus = "ACTIVE" // 已启用
	ScheduleStatusPaused ScheduleStatus = "PAUSED" // 已暂停
	ScheduleStatusDue    ScheduleStatus = "DUE"    // 已到期待执行
)

// StationAll 表示不限定站点
const StationAll = "ALL"

const hoursPerDay = 24

// AlertSchedule 告警计划领域模型
type AlertSchedule struct {
	ID                int64     // 计划唯一标识
	Name              string    // 计划名称
	AlertType         AlertType // 告警类型
	TriggerWindowDays int       // 触发窗口：到期日在该天数内的实体进入告警范围
	FrequencyDays     int       // 同一实体两次告警之间的最小间隔天数
	TemplateID        int64     // 关联的消息模板
	StationFilter     string    // 站点过滤，ALL 表示全部站点
	IsActive          bool      // 是否启用
	LastRun           time.Time // 上次执行时间，零值表示从未执行
	NextRun           time.Time // 下次执行时间
}

func (s *AlertSchedule) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: Name = %q", errs.ErrInvalidParameter, s.Name)
	}

	if s.AlertType != AlertTypeLicenseExpiry &&
		s.AlertType != AlertTypeInventoryLow &&
		s.AlertType != AlertTypeSystemNotice {
		return fmt.Errorf("%w: AlertType = %q", errs.ErrInvalidParameter, s.AlertType)
	}

	if s.TriggerWindowDays < 0 {
		return fmt.Errorf("%w: TriggerWindowDays = %d", errs.ErrInvalidParameter, s.TriggerWindowDays)
	}

	// 间隔至少一天，否则去重窗口失去意义
	if s.FrequencyDays < 1 {
		return fmt.Errorf("%w: FrequencyDays = %d", errs.ErrInvalidParameter, s.FrequencyDays)
	}

	if s.TemplateID <= 0 {
		return fmt.Errorf("%w: TemplateID = %d", errs.ErrInvalidParameter, s.TemplateID)
	}

	if s.StationFilter == "" {
		return fmt.Errorf("%w: StationFilter = %q", errs.ErrInvalidParameter, s.StationFilter)
	}

	return nil
}

// MatchStation 判断实体所属站点是否在计划范围内
func (s *AlertSchedule) MatchStation(station string) bool {
	return s.StationFilter == StationAll || s.StationFilter == station
}

// IsDue 判断计划是否到期待执行
func (s *AlertSchedule) IsDue(now time.Time) bool {
	return s.IsActive && !s.NextRun.After(now)
}

// Status 计算计划当前状态
func (s *AlertSchedule) Status(now time.Time) ScheduleStatus {
	if !s.IsActive {
		return ScheduleStatusPaused
	}
	if s.IsDue(now) {
		return ScheduleStatusDue
	}
	return ScheduleStatusActive
}

// FrequencyWindow 去重窗口时长
func (s *AlertSchedule) FrequencyWindow() time.Duration {
	return time.Duration(s.FrequencyDays) * hoursPerDay * time.Hour
}

// AdvanceClock 执行完一轮后推进时钟，无论本轮是否有到期实体都要推进
func (s *AlertSchedule) AdvanceClock(now time.Time) {
	s.LastRun = now
	s.NextRun = now.Add(s.FrequencyWindow())
}
