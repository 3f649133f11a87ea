package evaluator

import (
	"context"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/service/ledger"
)

// Evaluator 触发评估器。
// 除了台账查询之外是纯函数：相同的计划、候选集和时间点永远得到相同的结果，
// 没有任何隐藏的可变状态。输出顺序不作保证，需要排序的由调用方处理。
type Evaluator struct {
	ledger ledger.Service
}

func NewEvaluator(l ledger.Service) *Evaluator {
	return &Evaluator{ledger: l}
}

// Evaluate 从候选集中筛出本轮到期待告警的实体。
// 入选条件：
//  1. 站点匹配（计划为 ALL 或完全一致）；
//  2. 距到期日不超过触发窗口，没有下界——已过期再久的实体也入选，
//     告警的目的是催办而不只是预警；
//  3. 去重窗口内没有成功记录。
func (e *Evaluator) Evaluate(ctx context.Context, schedule domain.AlertSchedule, candidates []domain.CandidateEntity, now time.Time) ([]domain.CandidateEntity, error) {
	since := now.Add(-schedule.FrequencyWindow())

	due := make([]domain.CandidateEntity, 0, len(candidates))
	for i := range candidates {
		candidate := candidates[i]
		if !schedule.MatchStation(candidate.Station) {
			continue
		}
		if candidate.DaysUntil(now) > schedule.TriggerWindowDays {
			continue
		}
		alerted, err := e.ledger.AlreadyAlerted(ctx, schedule.ID, candidate.ID, since)
		if err != nil {
			return nil, err
		}
		if alerted {
			continue
		}
		due = append(due, candidate)
	}
	return due, nil
}
