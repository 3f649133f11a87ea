package runner

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	"gitee.com/flycash/alert-engine/internal/repository"
)

// ScheduleService 计划管理接口，负责规则的增删改查。
// 执行语义在 Service 里，这里只管配置
type ScheduleService interface {
	// Create 创建计划。频率和窗口留零则取配置里的缺省值。
	// 新计划的 next_run 即为当前时间，下一轮扫描立刻到期执行
	Create(ctx context.Context, schedule domain.AlertSchedule) (domain.AlertSchedule, error)
	// Update 更新计划规则字段，不触碰 last_run/next_run
	Update(ctx context.Context, schedule domain.AlertSchedule) error
	// GetByID 获取计划
	GetByID(ctx context.Context, id int64) (domain.AlertSchedule, error)
	// List 分页列出计划
	List(ctx context.Context, offset, limit int) ([]domain.AlertSchedule, error)
	// SetActive 启停计划。没有删除，历史记录还引用着计划，只允许软停用
	SetActive(ctx context.Context, id int64, active bool) error
}

// Defaults 新建计划时频率与窗口的缺省值，来自配置。
// 只补零值字段，负数仍然按非法参数拒绝
type Defaults struct {
	FrequencyDays     int `yaml:"frequencyDays"`
	TriggerWindowDays int `yaml:"triggerWindowDays"`
}

func (d Defaults) apply(schedule domain.AlertSchedule) domain.AlertSchedule {
	if schedule.FrequencyDays == 0 {
		schedule.FrequencyDays = d.FrequencyDays
	}
	if schedule.TriggerWindowDays == 0 {
		schedule.TriggerWindowDays = d.TriggerWindowDays
	}
	return schedule
}

type scheduleService struct {
	repo         repository.AlertScheduleRepository
	templateRepo repository.MessageTemplateRepository
	defaults     Defaults
}

func NewScheduleService(
	repo repository.AlertScheduleRepository,
	templateRepo repository.MessageTemplateRepository,
	defaults Defaults,
) ScheduleService {
	return &scheduleService{
		repo:         repo,
		templateRepo: templateRepo,
		defaults:     defaults,
	}
}

func (s *scheduleService) Create(ctx context.Context, schedule domain.AlertSchedule) (domain.AlertSchedule, error) {
	schedule = s.defaults.apply(schedule)
	if err := s.validate(ctx, schedule); err != nil {
		return domain.AlertSchedule{}, err
	}
	schedule.IsActive = true
	schedule.NextRun = time.Now()
	return s.repo.Create(ctx, schedule)
}

func (s *scheduleService) Update(ctx context.Context, schedule domain.AlertSchedule) error {
	if schedule.ID <= 0 {
		return fmt.Errorf("%w: 计划ID必须大于0", errs.ErrInvalidParameter)
	}
	if err := s.validate(ctx, schedule); err != nil {
		return err
	}
	return s.repo.Update(ctx, schedule)
}

func (s *scheduleService) GetByID(ctx context.Context, id int64) (domain.AlertSchedule, error) {
	if id <= 0 {
		return domain.AlertSchedule{}, fmt.Errorf("%w: 计划ID必须大于0", errs.ErrInvalidParameter)
	}
	return s.repo.FindByID(ctx, id)
}

func (s *scheduleService) List(ctx context.Context, offset, limit int) ([]domain.AlertSchedule, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *scheduleService) SetActive(ctx context.Context, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("%w: 计划ID必须大于0", errs.ErrInvalidParameter)
	}
	return s.repo.SetActive(ctx, id, active)
}

// validate 规则校验。模板必须存在且类别与告警类型匹配，
// 否则执行时才发现渲染不了就太晚了
func (s *scheduleService) validate(ctx context.Context, schedule domain.AlertSchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	tpl, err := s.templateRepo.FindByID(ctx, schedule.TemplateID)
	if err != nil {
		return err
	}
	if tpl.Category != domain.CategoryOf(schedule.AlertType) {
		return fmt.Errorf("%w: 模板类别 %q 与告警类型 %q 不匹配",
			errs.ErrInvalidParameter, tpl.Category, schedule.AlertType)
	}
	return nil
}
