//go:build unit

package delivery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	smsclient "gitee.com/flycash/alert-engine/internal/service/sms/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockVendorClient 是一个模拟的厂商客户端，errSeq 按调用顺序返回错误
type mockVendorClient struct {
	callCount int
	errSeq    []error
	lastReq   smsclient.SendReq
}

func (m *mockVendorClient) Send(req smsclient.SendReq) (smsclient.SendResp, error) {
	m.lastReq = req
	idx := m.callCount
	m.callCount++
	if idx < len(m.errSeq) && m.errSeq[idx] != nil {
		return smsclient.SendResp{}, m.errSeq[idx]
	}
	return smsclient.SendResp{RequestID: "req-1"}, nil
}

// mockRegistry 只关心 Reserve 的调用次数和结果
type mockRegistry struct {
	reserveCount int
	reserveErr   error
}

func (m *mockRegistry) SelectProvider(_ context.Context, _ int64, _ time.Time) (domain.ProviderAccount, error) {
	return domain.ProviderAccount{}, errs.ErrNoEligibleProvider
}

func (m *mockRegistry) Reserve(_ context.Context, _ int64, _ time.Time) error {
	m.reserveCount++
	return m.reserveErr
}

func (m *mockRegistry) Create(_ context.Context, account domain.ProviderAccount) (domain.ProviderAccount, error) {
	return account, nil
}

func (m *mockRegistry) Update(_ context.Context, _ domain.ProviderAccount) error { return nil }

func (m *mockRegistry) GetByID(_ context.Context, _ int64) (domain.ProviderAccount, error) {
	return domain.ProviderAccount{}, nil
}

func (m *mockRegistry) ListActive(_ context.Context) ([]domain.ProviderAccount, error) {
	return nil, nil
}

func testConfig() Config {
	return Config{
		Countries: []CountryConfig{
			{Code: "+86", Name: "China", Enabled: true},
			{Code: "+1", Name: "US/Canada", Enabled: false},
		},
		TestRecipients:  []string{"+8613800000000"},
		SendTimeout:     time.Second,
		RetryInterval:   time.Millisecond,
		PricePerSegment: 0.05,
	}
}

func testProvider() domain.ProviderAccount {
	return domain.ProviderAccount{
		ID:               1,
		Name:             "阿里云主账号",
		Code:             domain.ProviderCodeAliyun,
		SenderID:         "测试签名",
		VendorTemplateID: "SMS_0001",
		DailyQuota:       100,
		Status:           domain.ProviderStatusActive,
	}
}

func TestSendSuccess(t *testing.T) {
	t.Parallel()
	vendor := &mockVendorClient{}
	reg := &mockRegistry{}
	cli := NewClient(map[int64]smsclient.Client{1: vendor}, reg, testConfig())

	result, err := cli.Send(t.Context(), testProvider(), "+86 138-0013-8000", "车辆 88021 证照即将到期")
	require.NoError(t, err)
	assert.Equal(t, "阿里云主账号", result.Provider)
	assert.Equal(t, "+8613800138000", result.Recipient)
	assert.Equal(t, 1, result.Segments)
	assert.InDelta(t, 0.05, result.Cost, 1e-9)
	assert.Equal(t, 1, reg.reserveCount)
	assert.Equal(t, "SMS_0001", vendor.lastReq.TemplateID)
	assert.Equal(t, []string{"+8613800138000"}, vendor.lastReq.PhoneNumbers)
}

func TestSendValidationFailuresDoNotConsumeQuota(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		provider  domain.ProviderAccount
		recipient string
		wantErr   error
	}{
		{
			name:      "号码非法",
			provider:  testProvider(),
			recipient: "13800138000",
			wantErr:   errs.ErrInvalidRecipient,
		},
		{
			name:      "国家未启用",
			provider:  testProvider(),
			recipient: "+12025550100",
			wantErr:   errs.ErrCountryNotEnabled,
		},
		{
			name: "测试模式白名单之外",
			provider: func() domain.ProviderAccount {
				p := testProvider()
				p.IsTestMode = true
				return p
			}(),
			recipient: "+8613800138000",
			wantErr:   errs.ErrTestModeRestricted,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			vendor := &mockVendorClient{}
			reg := &mockRegistry{}
			cli := NewClient(map[int64]smsclient.Client{1: vendor}, reg, testConfig())

			_, err := cli.Send(t.Context(), tc.provider, tc.recipient, "内容")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr))
			// 网络调用前的失败不允许占用额度
			assert.Zero(t, reg.reserveCount)
			assert.Zero(t, vendor.callCount)
		})
	}
}

func TestSendTestModeAllowList(t *testing.T) {
	t.Parallel()
	vendor := &mockVendorClient{}
	reg := &mockRegistry{}
	cli := NewClient(map[int64]smsclient.Client{1: vendor}, reg, testConfig())

	provider := testProvider()
	provider.IsTestMode = true
	_, err := cli.Send(t.Context(), provider, "+8613800000000", "白名单号码放行")
	require.NoError(t, err)
	assert.Equal(t, 1, vendor.callCount)
}

func TestSendQuotaExceeded(t *testing.T) {
	t.Parallel()
	vendor := &mockVendorClient{}
	reg := &mockRegistry{reserveErr: fmt.Errorf("%w: id = 1", errs.ErrQuotaExceeded)}
	cli := NewClient(map[int64]smsclient.Client{1: vendor}, reg, testConfig())

	_, err := cli.Send(t.Context(), testProvider(), "+8613800138000", "内容")
	assert.True(t, errors.Is(err, errs.ErrQuotaExceeded))
	// 额度占用失败就不该碰网络
	assert.Zero(t, vendor.callCount)
}

func TestSendRetriesTransientOnce(t *testing.T) {
	t.Parallel()

	t.Run("重试一次后成功", func(t *testing.T) {
		t.Parallel()
		vendor := &mockVendorClient{errSeq: []error{
			fmt.Errorf("%w: 网络抖动", errs.ErrProviderUnavailable),
			nil,
		}}
		reg := &mockRegistry{}
		cli := NewClient(map[int64]smsclient.Client{1: vendor}, reg, testConfig())

		_, err := cli.Send(t.Context(), testProvider(), "+8613800138000", "内容")
		require.NoError(t, err)
		assert.Equal(t, 2, vendor.callCount)
		// 重试不重复占用额度
		assert.Equal(t, 1, reg.reserveCount)
	})

	t.Run("重试仍失败就放弃", func(t *testing.T) {
		t.Parallel()
		unavailable := fmt.Errorf("%w: 服务不可达", errs.ErrProviderUnavailable)
		vendor := &mockVendorClient{errSeq: []error{unavailable, unavailable, unavailable}}
		reg := &mockRegistry{}
		cli := NewClient(map[int64]smsclient.Client{1: vendor}, reg, testConfig())

		_, err := cli.Send(t.Context(), testProvider(), "+8613800138000", "内容")
		assert.True(t, errors.Is(err, errs.ErrProviderUnavailable))
		assert.Equal(t, 2, vendor.callCount)
	})

	t.Run("认证失败不重试", func(t *testing.T) {
		t.Parallel()
		vendor := &mockVendorClient{errSeq: []error{
			fmt.Errorf("%w: AK失效", errs.ErrAuthentication),
			nil,
		}}
		reg := &mockRegistry{}
		cli := NewClient(map[int64]smsclient.Client{1: vendor}, reg, testConfig())

		_, err := cli.Send(t.Context(), testProvider(), "+8613800138000", "内容")
		assert.True(t, errors.Is(err, errs.ErrAuthentication))
		assert.Equal(t, 1, vendor.callCount)
	})
}

func TestSendUnknownProviderClient(t *testing.T) {
	t.Parallel()
	reg := &mockRegistry{}
	cli := NewClient(map[int64]smsclient.Client{}, reg, testConfig())

	_, err := cli.Send(t.Context(), testProvider(), "+8613800138000", "内容")
	assert.True(t, errors.Is(err, errs.ErrProviderUnavailable))
	assert.Zero(t, reg.reserveCount)
}
