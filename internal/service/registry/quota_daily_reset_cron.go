package registry

import (
	"context"
	"time"

	"gitee.com/flycash/alert-engine/internal/repository"
	"github.com/gotomicro/ego/core/elog"
)

// QuotaDailyResetCron 每日额度滚动任务。
// Reserve 本身会在跨日的第一次发送时懒滚动，这个任务只是兜底，
// 保证长时间没有发送的账号额度展示也是最新的。
type QuotaDailyResetCron struct {
	repo   repository.ProviderAccountRepository
	logger *elog.Component
}

func NewQuotaDailyResetCron(repo repository.ProviderAccountRepository) *QuotaDailyResetCron {
	return &QuotaDailyResetCron{
		repo:   repo,
		logger: elog.DefaultLogger,
	}
}

func (c *QuotaDailyResetCron) Do(ctx context.Context) error {
	affected, err := c.repo.ResetDay(ctx, time.Now())
	if err != nil {
		c.logger.Error("每日额度滚动失败", elog.FieldErr(err))
		return err
	}
	c.logger.Info("每日额度滚动完成", elog.Int64("affected", affected))
	return nil
}
