package domain

import (
	"fmt"

	"gitee.com/flycash/alert-engine/internal/errs"
)

// ProviderStatus 供应商账号状态
type ProviderStatus string

const (
	ProviderStatusActive   ProviderStatus = "ACTIVE"   // 激活
	ProviderStatusInactive ProviderStatus = "INACTIVE" // 停用
)

// ProviderCode 供应商厂商编码，决定使用哪个客户端实现
const (
	ProviderCodeAliyun  = "aliyun"
	ProviderCodeTencent = "tencentcloud"
)

// ProviderAccount 出站发送身份领域模型
type ProviderAccount struct {
	ID   int64
	Name string // 账号名称
	Code string // 厂商编码：aliyun / tencentcloud

	// 发送身份与凭证
	SenderID  string // 短信签名/发送方名称
	RegionID  string
	APIKey    string
	APISecret string
	AppID     string
	// 厂商侧通用模板ID，正文通过该模板的 content 变量透传
	VendorTemplateID string

	IsTestMode bool // 测试模式，仅允许发送到白名单号码

	DailyQuota int32  // 每日发送上限
	UsedToday  int32  // 当日已用量，按天滚动清零
	QuotaDate  string // 当日额度所属日期，格式 2006-01-02

	Priority int // 选择顺序，数字越小优先级越高
	Status   ProviderStatus
}

func (p *ProviderAccount) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: Name = %q", errs.ErrInvalidParameter, p.Name)
	}
	if p.Code != ProviderCodeAliyun && p.Code != ProviderCodeTencent {
		return fmt.Errorf("%w: Code = %q", errs.ErrInvalidParameter, p.Code)
	}
	if p.SenderID == "" {
		return fmt.Errorf("%w: SenderID = %q", errs.ErrInvalidParameter, p.SenderID)
	}
	if p.DailyQuota <= 0 {
		return fmt.Errorf("%w: DailyQuota = %d", errs.ErrInvalidParameter, p.DailyQuota)
	}
	return nil
}

// IsAvailable 判断账号在指定日期是否还有额度可用。
// 结果仅作选择参考，真正的额度扣减在发送前通过条件更新完成。
func (p *ProviderAccount) IsAvailable(day string) bool {
	if p.Status != ProviderStatusActive {
		return false
	}
	// 额度日期落后说明还没发生当日滚动，视为额度全量可用
	if p.QuotaDate != day {
		return true
	}
	return p.UsedToday < p.DailyQuota
}
