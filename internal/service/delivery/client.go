package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	"gitee.com/flycash/alert-engine/internal/service/registry"
	smsclient "gitee.com/flycash/alert-engine/internal/service/sms/client"
	"gitee.com/flycash/alert-engine/internal/service/template"
	"github.com/ecodeclub/ekit/retry"
	"github.com/gotomicro/ego/core/elog"
)

const (
	defaultSendTimeout   = 10 * time.Second
	defaultRetryInterval = time.Second
	// 临时不可用只重试一次，再失败交给下一轮计划执行
	maxTransientRetries = 1
)

// Config 发送客户端配置
type Config struct {
	// Countries 启用的国家/地区区号表，不在表内的号码直接拒发
	Countries []CountryConfig `yaml:"countries"`
	// TestRecipients 测试模式白名单号码（E.164）
	TestRecipients []string `yaml:"testRecipients"`
	// SendTimeout 单次网络调用超时
	SendTimeout time.Duration `yaml:"sendTimeout"`
	// RetryInterval 临时不可用的重试间隔
	RetryInterval time.Duration `yaml:"retryInterval"`
	// PricePerSegment 每个短信分段的成本，仅用于记录展示
	PricePerSegment float64 `yaml:"pricePerSegment"`
}

// Result 单次发送结果
type Result struct {
	Provider  string // 实际使用的供应商账号名称
	Recipient string // 归一化后的接收号码
	Segments  int
	Cost      float64
}

// Client 发送客户端接口
type Client interface {
	// Send 通过指定供应商账号发送一条短信。
	// 校验失败（号码非法、国家未启用、测试模式限制）在任何网络调用之前
	// 返回且不消耗额度；额度占用发生在网络调用之前，厂商拒绝不回滚。
	Send(ctx context.Context, provider domain.ProviderAccount, recipient, body string) (Result, error)
}

type client struct {
	clients map[int64]smsclient.Client
	reg     registry.Service
	cfg     Config
	logger  *elog.Component
}

// NewClient 创建发送客户端。clients 按供应商账号ID索引
func NewClient(clients map[int64]smsclient.Client, reg registry.Service, cfg Config) Client {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	return &client{
		clients: clients,
		reg:     reg,
		cfg:     cfg,
		logger:  elog.DefaultLogger,
	}
}

func (c *client) Send(ctx context.Context, provider domain.ProviderAccount, recipient, body string) (Result, error) {
	// 网络调用前的快速校验，这些失败不消耗额度
	normalized, err := NormalizePhone(recipient)
	if err != nil {
		return Result{}, err
	}

	if !countryEnabled(c.cfg.Countries, normalized) {
		return Result{}, fmt.Errorf("%w: %s", errs.ErrCountryNotEnabled, normalized)
	}

	if provider.IsTestMode && !c.inTestAllowList(normalized) {
		return Result{}, fmt.Errorf("%w: %s", errs.ErrTestModeRestricted, normalized)
	}

	vendor, ok := c.clients[provider.ID]
	if !ok {
		return Result{}, fmt.Errorf("%w: 账号 %q 未配置厂商客户端", errs.ErrProviderUnavailable, provider.Name)
	}

	// 在网络调用前占用额度，厂商侧拒绝不回滚，防止重试绕开额度
	if err := c.reg.Reserve(ctx, provider.ID, time.Now()); err != nil {
		return Result{}, err
	}

	req := smsclient.SendReq{
		PhoneNumbers: []string{normalized},
		SignName:     provider.SenderID,
		TemplateID:   provider.VendorTemplateID,
		Content:      body,
	}

	strategy, err := retry.NewFixedIntervalRetryStrategy(c.cfg.RetryInterval, maxTransientRetries)
	if err != nil {
		return Result{}, err
	}

	for {
		sendErr := c.sendOnce(ctx, vendor, req)
		if sendErr == nil {
			segments := template.SegmentCount(body)
			return Result{
				Provider:  provider.Name,
				Recipient: normalized,
				Segments:  segments,
				Cost:      float64(segments) * c.cfg.PricePerSegment,
			}, nil
		}

		// 只有临时不可用值得重试，其余分类原样上抛
		if !errors.Is(sendErr, errs.ErrProviderUnavailable) {
			return Result{}, sendErr
		}

		interval, ok := strategy.Next()
		if !ok {
			return Result{}, sendErr
		}
		c.logger.Warn("供应商临时不可用，重试一次",
			elog.String("provider", provider.Name),
			elog.FieldErr(sendErr))
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, ctx.Err())
		case <-time.After(interval):
		}
	}
}

// sendOnce 带超时的单次网络调用，超时归类为临时不可用
func (c *client) sendOnce(ctx context.Context, vendor smsclient.Client, req smsclient.SendReq) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := vendor.Send(req)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// 调用结果不明，按临时不可用处理；额度已占用不回滚
		return fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, ctx.Err())
	}
}

func (c *client) inTestAllowList(number string) bool {
	for _, allowed := range c.cfg.TestRecipients {
		if allowed == number {
			return true
		}
	}
	return false
}
