package main

import (
	"context"

	"gitee.com/flycash/alert-engine/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
)

func main() {
	// ego.New() 会先加载配置，组件初始化必须在它之后
	egoApp := ego.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := ioc.InitApp(ctx)
	app.StartLoops(ctx)

	if err := egoApp.Cron(app.Crons...).Run(); err != nil {
		elog.Panic("startup", elog.FieldErr(err))
	}
}
