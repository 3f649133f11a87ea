package runner

import (
	"context"
	"time"

	"gitee.com/flycash/alert-engine/internal/pkg/loopjob"
	"github.com/meoying/dlock-go"
)

const (
	scanLoopKey         = "alert_engine_schedule_runner"
	defaultScanInterval = time.Minute
)

// ScanLoop 周期扫描循环。每个 tick 扫一遍到期的启用计划并逐个执行，
// 全局同一时刻只有一个实例在扫（loopjob 的分布式锁保证），
// 单个计划内部还有自己的锁，两层互不依赖。
type ScanLoop struct {
	loop *loopjob.InfiniteLoop
}

func NewScanLoop(dclient dlock.Client, svc Service, interval time.Duration) *ScanLoop {
	if interval <= 0 {
		interval = defaultScanInterval
	}
	return &ScanLoop{
		loop: loopjob.NewInfiniteLoop(dclient, func(ctx context.Context) error {
			return svc.RunDue(ctx, time.Now())
		}, scanLoopKey, interval),
	}
}

// Start 阻塞运行，ctx 取消时退出
func (s *ScanLoop) Start(ctx context.Context) {
	s.loop.Run(ctx)
}
