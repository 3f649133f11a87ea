package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	"gitee.com/flycash/alert-engine/internal/repository"
	"gitee.com/flycash/alert-engine/internal/service/delivery"
	"gitee.com/flycash/alert-engine/internal/service/evaluator"
	"gitee.com/flycash/alert-engine/internal/service/ledger"
	"gitee.com/flycash/alert-engine/internal/service/registry"
	"gitee.com/flycash/alert-engine/internal/service/template"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"github.com/meoying/dlock-go"
)

const (
	defaultScanBatchSize = 50
	lockTimeout          = time.Second * 3
	// 锁的有效期必须远小于频率窗口，执行期间靠续约保活。
	// 进程挂掉时锁在分钟级过期，不会把计划锁到下个窗口
	lockExpiration      = time.Minute
	lockRefreshInterval = time.Second * 20
	dateLayout          = "2006-01-02"
)

// Service 计划执行器服务接口
type Service interface {
	// RunSchedule 手动触发一次执行，无视 next_run 立即跑完 2~5 步，
	// 跑完后依然从当前时间重算 next_run。
	// 同一个计划正在执行时返回 errs.ErrScheduleRunning，触发被合并丢弃而不是排队。
	RunSchedule(ctx context.Context, scheduleID int64) (domain.RunSummary, error)
	// RunDue 执行一遍所有到期的启用计划，由周期循环调用
	RunDue(ctx context.Context, now time.Time) error
	// GetScheduleStatus 获取计划当前状态，DUE 为派生值
	GetScheduleStatus(ctx context.Context, scheduleID int64) (domain.ScheduleStatus, error)
	// ListHistory 查询发送历史
	ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.DeliveryRecord, error)
}

type runner struct {
	scheduleRepo  repository.AlertScheduleRepository
	candidateRepo repository.CandidateRepository
	templateRepo  repository.MessageTemplateRepository
	evaluator     *evaluator.Evaluator
	ledger        ledger.Service
	registry      registry.Service
	delivery      delivery.Client
	dclient       dlock.Client
	logger        *elog.Component

	// 进程内的执行中计划集合，同计划的并发触发在这里直接合并掉，
	// 不用等到分布式锁那一层
	mu      sync.Mutex
	running map[int64]struct{}
}

func NewService(
	scheduleRepo repository.AlertScheduleRepository,
	candidateRepo repository.CandidateRepository,
	templateRepo repository.MessageTemplateRepository,
	eval *evaluator.Evaluator,
	ledgerSvc ledger.Service,
	registrySvc registry.Service,
	deliveryClient delivery.Client,
	dclient dlock.Client,
) Service {
	return &runner{
		scheduleRepo:  scheduleRepo,
		candidateRepo: candidateRepo,
		templateRepo:  templateRepo,
		evaluator:     eval,
		ledger:        ledgerSvc,
		registry:      registrySvc,
		delivery:      deliveryClient,
		dclient:       dclient,
		logger:        elog.DefaultLogger,
		running:       make(map[int64]struct{}),
	}
}

func (r *runner) RunSchedule(ctx context.Context, scheduleID int64) (domain.RunSummary, error) {
	if scheduleID <= 0 {
		return domain.RunSummary{}, fmt.Errorf("%w: scheduleID = %d", errs.ErrInvalidParameter, scheduleID)
	}
	schedule, err := r.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		return domain.RunSummary{}, err
	}
	if !schedule.IsActive {
		return domain.RunSummary{ScheduleID: scheduleID}, fmt.Errorf("%w: id = %d", errs.ErrScheduleInactive, scheduleID)
	}
	return r.run(ctx, schedule, time.Now())
}

func (r *runner) RunDue(ctx context.Context, now time.Time) error {
	schedules, err := r.scheduleRepo.FindDue(ctx, now, defaultScanBatchSize)
	if err != nil {
		return fmt.Errorf("扫描到期计划失败: %w", err)
	}

	var combined error
	for i := range schedules {
		summary, err := r.run(ctx, schedules[i], now)
		if err != nil {
			if errors.Is(err, errs.ErrScheduleRunning) {
				// 已有执行在途，本次触发合并丢弃，下一轮自然会补上
				continue
			}
			combined = multierror.Append(combined, fmt.Errorf("计划 %d 执行失败: %w", schedules[i].ID, err))
			continue
		}
		r.logger.Info("计划执行完成",
			elog.Int64("scheduleID", summary.ScheduleID),
			elog.Int("due", summary.DueCount),
			elog.Int("sent", summary.Sent),
			elog.Int("failed", summary.Failed),
			elog.Int("skipped", summary.Skipped))
	}
	return combined
}

// run 执行一个计划的一轮：候选 → 评估 → 渲染 → 发送 → 记账，
// 最后无条件推进时钟。整轮按实体顺序串行，额度扣减因此不需要额外的计数器。
func (r *runner) run(ctx context.Context, schedule domain.AlertSchedule, now time.Time) (domain.RunSummary, error) {
	if !r.tryAcquire(schedule.ID) {
		return domain.RunSummary{}, fmt.Errorf("%w: id = %d", errs.ErrScheduleRunning, schedule.ID)
	}
	defer r.release(schedule.ID)

	// 跨实例的同计划串行靠分布式锁，抢不到同样按合并处理
	lock, err := r.dclient.NewLock(ctx, fmt.Sprintf("alert_engine:schedule:%d", schedule.ID), lockExpiration)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("初始化分布式锁失败: %w", err)
	}
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	err = lock.Lock(lockCtx)
	cancel()
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("%w: id = %d", errs.ErrScheduleRunning, schedule.ID)
	}
	defer func() {
		unCtx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		//nolint:contextcheck // 解锁必须脱离原始 ctx
		if unErr := lock.Unlock(unCtx); unErr != nil {
			r.logger.Error("释放计划执行锁失败",
				elog.Int64("scheduleID", schedule.ID),
				elog.FieldErr(unErr))
		}
		cancel()
	}()
	// 一轮执行可能超过锁的有效期，执行期间持续续约
	refreshDone := make(chan struct{})
	go r.keepLockAlive(ctx, lock, schedule.ID, refreshDone)
	defer close(refreshDone)

	summary := domain.RunSummary{ScheduleID: schedule.ID}
	runErr := r.execute(ctx, schedule, now, &summary)
	summary.Err = runErr

	// 时钟无条件推进：哪怕整轮被计划级错误打断，也不能让计划卡死在过去。
	// 零到期实体的空轮同样推进，否则会一直空转评估
	schedule.AdvanceClock(now)
	if err := r.scheduleRepo.AdvanceClock(ctx, schedule.ID, schedule.LastRun, schedule.NextRun); err != nil {
		r.logger.Error("推进计划时钟失败",
			elog.Int64("scheduleID", schedule.ID),
			elog.FieldErr(err))
		summary.Err = multierror.Append(summary.Err, err)
	}
	return summary, nil
}

// keepLockAlive 周期续约分布式锁，done 关闭时退出。
// 续约失败只记日志：锁丢了最多导致另一个实例重叠执行，
// 发送前的幂等复查会把重复发送拦下来
func (r *runner) keepLockAlive(ctx context.Context, lock dlock.Lock, scheduleID int64, done <-chan struct{}) {
	ticker := time.NewTicker(lockRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			refCtx, cancel := context.WithTimeout(ctx, lockTimeout)
			err := lock.Refresh(refCtx)
			cancel()
			if err != nil {
				r.logger.Error("计划执行锁续约失败",
					elog.Int64("scheduleID", scheduleID),
					elog.FieldErr(err))
			}
		}
	}
}

// execute 处理一轮的全部到期实体。返回计划级错误；实体级失败只计数不上抛
func (r *runner) execute(ctx context.Context, schedule domain.AlertSchedule, now time.Time, summary *domain.RunSummary) error {
	tpl, err := r.templateRepo.FindByID(ctx, schedule.TemplateID)
	if err != nil {
		return err
	}
	if !tpl.IsActive {
		return fmt.Errorf("%w: id = %d", errs.ErrTemplateInactive, tpl.ID)
	}

	before := now.AddDate(0, 0, schedule.TriggerWindowDays)
	candidates, err := r.candidateRepo.FindCandidates(ctx, schedule.AlertType, schedule.StationFilter, before)
	if err != nil {
		return fmt.Errorf("获取候选实体失败: %w", err)
	}

	due, err := r.evaluator.Evaluate(ctx, schedule, candidates, now)
	if err != nil {
		return fmt.Errorf("评估到期实体失败: %w", err)
	}
	summary.DueCount = len(due)

	var preferredID int64
	for i := range due {
		entity := due[i]

		// 发送前最后一道幂等复查。批量评估之后到现在这段时间里，
		// 另一轮重叠执行可能已经发过了
		alerted, err := r.ledger.AlreadyAlerted(ctx, schedule.ID, entity.ID, now.Add(-schedule.FrequencyWindow()))
		if err != nil {
			return fmt.Errorf("幂等复查失败: %w", err)
		}
		if alerted {
			summary.Skipped++
			r.record(ctx, schedule.ID, entity.ID, "", "", "",
				domain.DeliveryStatusSkipped, domain.ErrorKindAlreadyAlerted, 0)
			continue
		}

		rendered, err := template.Render(tpl, r.buildParams(schedule, tpl.Category, entity, now))
		if err != nil {
			summary.Failed++
			r.record(ctx, schedule.ID, entity.ID, firstOrEmpty(entity.ContactNumbers), "", "",
				domain.DeliveryStatusFailed, domain.ErrorKindOf(err), 0)
			continue
		}

		provider, err := r.registry.SelectProvider(ctx, preferredID, now)
		if err != nil {
			// 全军覆没是计划级错误：记下这个实体的失败，然后硬停本轮
			summary.Failed++
			r.record(ctx, schedule.ID, entity.ID, firstOrEmpty(entity.ContactNumbers), rendered.Body, "",
				domain.DeliveryStatusFailed, domain.ErrorKindOf(err), 0)
			return err
		}
		preferredID = provider.ID

		sendErr := r.sendToEntity(ctx, schedule, entity, provider, rendered.Body, summary)
		if sendErr != nil {
			if errors.Is(sendErr, errs.ErrAuthentication) {
				// 凭证坏了对每个实体都一样，继续只会白白烧额度
				return sendErr
			}
			if errors.Is(sendErr, errs.ErrQuotaExceeded) {
				// 这个账号本轮不再用，后续实体回到注册表重新选
				preferredID = 0
			}
		}
	}
	return nil
}

// sendToEntity 给单个实体发送。联系号码按顺序尝试，
// 号码级失败换下一个号码，发成功立即停止
func (r *runner) sendToEntity(
	ctx context.Context,
	schedule domain.AlertSchedule,
	entity domain.CandidateEntity,
	provider domain.ProviderAccount,
	body string,
	summary *domain.RunSummary,
) error {
	if len(entity.ContactNumbers) == 0 {
		summary.Failed++
		r.record(ctx, schedule.ID, entity.ID, "", body, "",
			domain.DeliveryStatusFailed, domain.ErrorKindInvalidRecipient, 0)
		return nil
	}

	var lastErr error
	for _, number := range entity.ContactNumbers {
		result, err := r.delivery.Send(ctx, provider, number, body)
		if err == nil {
			summary.Sent++
			r.record(ctx, schedule.ID, entity.ID, result.Recipient, body, result.Provider,
				domain.DeliveryStatusSent, domain.ErrorKindNone, result.Cost)
			return nil
		}
		lastErr = err

		// 号码级错误换下一个号码，其余错误对这个实体的所有号码都成立
		if errors.Is(err, errs.ErrInvalidRecipient) ||
			errors.Is(err, errs.ErrCountryNotEnabled) ||
			errors.Is(err, errs.ErrTestModeRestricted) {
			continue
		}
		break
	}

	summary.Failed++
	r.record(ctx, schedule.ID, entity.ID, firstOrEmpty(entity.ContactNumbers), body, provider.Name,
		domain.DeliveryStatusFailed, domain.ErrorKindOf(lastErr), 0)
	return lastErr
}

// record 记账，任何结果都要落一条。记账本身失败只能记日志，不中断执行
func (r *runner) record(
	ctx context.Context,
	scheduleID, entityID int64,
	recipient, body, provider string,
	status domain.DeliveryStatus,
	kind domain.ErrorKind,
	cost float64,
) {
	err := r.ledger.Record(ctx, domain.DeliveryRecord{
		ScheduleID: scheduleID,
		EntityID:   entityID,
		Recipient:  recipient,
		Body:       body,
		Provider:   provider,
		Status:     status,
		ErrorKind:  kind,
		Cost:       cost,
	})
	if err != nil {
		r.logger.Error("写入发送记录失败",
			elog.Int64("scheduleID", scheduleID),
			elog.Int64("entityID", entityID),
			elog.String("status", string(status)),
			elog.FieldErr(err))
	}
}

// buildParams 按模板类别组装渲染参数
func (r *runner) buildParams(schedule domain.AlertSchedule, category domain.TemplateCategory, entity domain.CandidateEntity, now time.Time) map[string]string {
	params := map[string]string{
		"entity_id":      strconv.FormatInt(entity.ID, 10),
		"station":        entity.Station,
		"days_remaining": strconv.Itoa(entity.DaysUntil(now)),
	}
	switch category {
	case domain.CategoryLicenseExpiry:
		params["expiry_date"] = entity.ExpiryDate.Format(dateLayout)
	case domain.CategoryInventoryLow:
		params["threshold_date"] = entity.ExpiryDate.Format(dateLayout)
	case domain.CategorySystemNotice:
		params["message"] = schedule.Name
	}
	return params
}

func (r *runner) GetScheduleStatus(ctx context.Context, scheduleID int64) (domain.ScheduleStatus, error) {
	schedule, err := r.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		return "", err
	}
	return schedule.Status(time.Now()), nil
}

func (r *runner) ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.DeliveryRecord, error) {
	return r.ledger.ListHistory(ctx, filter)
}

func (r *runner) tryAcquire(scheduleID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[scheduleID]; ok {
		return false
	}
	r.running[scheduleID] = struct{}{}
	return true
}

func (r *runner) release(scheduleID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, scheduleID)
}

func firstOrEmpty(numbers []string) string {
	if len(numbers) == 0 {
		return ""
	}
	return numbers[0]
}
