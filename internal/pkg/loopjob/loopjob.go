package loopjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// 在没有分布式任务调度平台的情况下，使用这个来调度

const defaultTimeout = time.Second * 3

// InfiniteLoop 持有分布式锁反复执行业务的无限循环。
// 同一个 key 全局同一时刻只有一个实例在跑。
type InfiniteLoop struct {
	dclient  dlock.Client
	key      string
	interval time.Duration
	logger   *elog.Component
	biz      func(ctx context.Context) error
}

func NewInfiniteLoop(
	dclient dlock.Client,
	// 你要执行的业务。注意当 ctx 被取消的时候，就会退出全部循环
	biz func(ctx context.Context) error,
	key string,
	interval time.Duration,
) *InfiniteLoop {
	return &InfiniteLoop{
		dclient:  dclient,
		key:      key,
		interval: interval,
		logger:   elog.DefaultLogger.With(elog.String("key", key)),
		biz:      biz,
	}
}

// Run 当 ctx 被取消的时候，就会退出
func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, l.interval)
		if err != nil {
			l.logger.Error("初始化分布式锁失败，重试", elog.FieldErr(err))
			time.Sleep(l.interval)
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			// 没抢到锁，别的实例在跑，等一会再试
			time.Sleep(l.interval)
			continue
		}

		err = l.bizLoop(ctx, lock)
		if err != nil {
			l.logger.Error("执行业务失败，将执行重试", elog.FieldErr(err))
		}
		// 不管什么原因退出都要释放锁。
		// ctx 此时可能已被取消，解锁必须用独立的 Context
		unCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		//nolint:contextcheck // 解锁必须脱离原始 ctx
		unErr := lock.Unlock(unCtx)
		cancel()
		if unErr != nil {
			l.logger.Error("释放分布式锁失败", elog.FieldErr(unErr))
		}

		err = ctx.Err()
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			l.logger.Info("任务被取消，退出任务循环")
			return
		default:
			time.Sleep(l.interval)
		}
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		start := time.Now()
		err := l.biz(ctx)
		if err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		refCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("分布式锁续约失败 %w", err)
		}

		// 单轮太快就歇一会，避免空转打满数据库
		if elapsed := time.Since(start); elapsed < l.interval {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.interval - elapsed):
			}
		}
	}
}
