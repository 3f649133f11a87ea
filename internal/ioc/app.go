package ioc

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/repository"
	cachepkg "gitee.com/flycash/alert-engine/internal/repository/cache/local"
	"gitee.com/flycash/alert-engine/internal/repository/dao"
	"gitee.com/flycash/alert-engine/internal/service/delivery"
	deliverymetrics "gitee.com/flycash/alert-engine/internal/service/delivery/metrics"
	"gitee.com/flycash/alert-engine/internal/service/evaluator"
	"gitee.com/flycash/alert-engine/internal/service/ledger"
	"gitee.com/flycash/alert-engine/internal/service/registry"
	"gitee.com/flycash/alert-engine/internal/service/runner"
	templatesvc "gitee.com/flycash/alert-engine/internal/service/template"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/task/ecron"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/sonyflake"
)

const (
	templateCacheExpiration = 10 * time.Minute
	templateCacheCleanup    = 30 * time.Minute
)

type App struct {
	Crons    []ecron.Ecron
	ScanLoop *runner.ScanLoop

	RunnerSvc   runner.Service
	ScheduleSvc runner.ScheduleService
	TemplateSvc templatesvc.Service
	RegistrySvc registry.Service
	LedgerSvc   ledger.Service

	ScheduleRepo repository.AlertScheduleRepository
	TemplateRepo repository.MessageTemplateRepository
	ProviderRepo repository.ProviderAccountRepository
	DeliveryRepo repository.DeliveryRecordRepository
}

// InitApp 手工组装全部组件，启动失败直接 panic
func InitApp(ctx context.Context) *App {
	db := InitDB()
	rdb := InitRedisClient()
	dclient := InitDistributedLock(rdb)
	// 机器ID推导失败（容器里常见）必须在启动时就暴露，
	// 不能等到第一条发送记录写入时才崩
	sf, err := sonyflake.New(sonyflake.Settings{})
	if err != nil {
		panic(fmt.Errorf("初始化ID生成器失败: %w", err))
	}

	scheduleRepo := repository.NewAlertScheduleRepository(dao.NewAlertScheduleDAO(db))
	templateCache := cachepkg.NewLocalTemplateCache(gocache.New(templateCacheExpiration, templateCacheCleanup))
	templateRepo := repository.NewMessageTemplateRepository(dao.NewMessageTemplateDAO(db), templateCache)
	providerRepo := repository.NewProviderAccountRepository(dao.NewProviderAccountDAO(db))
	deliveryRepo := repository.NewDeliveryRecordRepository(dao.NewDeliveryRecordDAO(db, sf))
	candidateRepo := repository.NewCandidateRepository(dao.NewAlertCandidateDAO(db))

	registrySvc := registry.NewService(providerRepo)
	ledgerSvc := ledger.NewService(deliveryRepo)
	eval := evaluator.NewEvaluator(ledgerSvc)

	var deliveryCfg delivery.Config
	if err := econf.UnmarshalKey("delivery", &deliveryCfg); err != nil {
		panic(err)
	}
	smsClients := InitSmsClients(ctx, registrySvc)
	var deliveryClient delivery.Client = delivery.NewClient(smsClients, registrySvc, deliveryCfg)
	deliveryClient = deliverymetrics.NewClient(deliveryClient)

	runnerSvc := runner.NewService(
		scheduleRepo, candidateRepo, templateRepo,
		eval, ledgerSvc, registrySvc, deliveryClient, dclient)

	type scanConfig struct {
		Interval time.Duration `yaml:"interval"`
	}
	var scanCfg scanConfig
	if err := econf.UnmarshalKey("runner.scan", &scanCfg); err != nil {
		panic(err)
	}

	var defaults runner.Defaults
	if err := econf.UnmarshalKey("alert.defaults", &defaults); err != nil {
		panic(err)
	}

	return &App{
		Crons:        Crons(registry.NewQuotaDailyResetCron(providerRepo)),
		ScanLoop:     runner.NewScanLoop(dclient, runnerSvc, scanCfg.Interval),
		RunnerSvc:    runnerSvc,
		ScheduleSvc:  runner.NewScheduleService(scheduleRepo, templateRepo, defaults),
		TemplateSvc:  templatesvc.NewService(templateRepo),
		RegistrySvc:  registrySvc,
		LedgerSvc:    ledgerSvc,
		ScheduleRepo: scheduleRepo,
		TemplateRepo: templateRepo,
		ProviderRepo: providerRepo,
		DeliveryRepo: deliveryRepo,
	}
}

// StartLoops 启动周期循环，ctx 取消时退出
func (a *App) StartLoops(ctx context.Context) {
	go a.ScanLoop.Start(ctx)
}
