package ioc

import (
	"gitee.com/flycash/alert-engine/internal/service/registry"
	"github.com/gotomicro/ego/task/ecron"
)

func Crons(q *registry.QuotaDailyResetCron) []ecron.Ecron {
	q1 := ecron.Load("cron.quotaReset").Build(ecron.WithJob(q.Do))
	return []ecron.Ecron{q1}
}
