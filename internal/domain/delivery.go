package domain

import (
	"errors"
	"time"

	"gitee.com/flycash/alert-engine/internal/errs"
)

// DeliveryStatus 单次发送结果状态
type DeliveryStatus string

const (
	DeliveryStatusSent    DeliveryStatus = "SENT"    // 发送成功
	DeliveryStatusFailed  DeliveryStatus = "FAILED"  // 发送失败
	DeliveryStatusSkipped DeliveryStatus = "SKIPPED" // 主动跳过
)

// ErrorKind 失败分类，写入发送记录用于审计
type ErrorKind string

const (
	ErrorKindNone                ErrorKind = ""
	ErrorKindTemplateRender      ErrorKind = "TEMPLATE_RENDER"
	ErrorKindNoEligibleProvider  ErrorKind = "NO_ELIGIBLE_PROVIDER"
	ErrorKindAuthentication      ErrorKind = "AUTHENTICATION"
	ErrorKindInvalidRecipient    ErrorKind = "INVALID_RECIPIENT"
	ErrorKindCountryNotEnabled   ErrorKind = "COUNTRY_NOT_ENABLED"
	ErrorKindTestModeRestricted  ErrorKind = "TEST_MODE_RESTRICTED"
	ErrorKindQuotaExceeded       ErrorKind = "QUOTA_EXCEEDED"
	ErrorKindProviderUnavailable ErrorKind = "PROVIDER_UNAVAILABLE"
	// ErrorKindAlreadyAlerted 发送前复查发现窗口内已有成功记录，本次主动跳过
	ErrorKindAlreadyAlerted ErrorKind = "ALREADY_ALERTED"
	ErrorKindUnknown        ErrorKind = "UNKNOWN"
)

// ErrorKindOf 把错误映射为审计分类
func ErrorKindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, errs.ErrTemplateRender):
		return ErrorKindTemplateRender
	case errors.Is(err, errs.ErrNoEligibleProvider):
		return ErrorKindNoEligibleProvider
	case errors.Is(err, errs.ErrAuthentication):
		return ErrorKindAuthentication
	case errors.Is(err, errs.ErrInvalidRecipient):
		return ErrorKindInvalidRecipient
	case errors.Is(err, errs.ErrCountryNotEnabled):
		return ErrorKindCountryNotEnabled
	case errors.Is(err, errs.ErrTestModeRestricted):
		return ErrorKindTestModeRestricted
	case errors.Is(err, errs.ErrQuotaExceeded):
		return ErrorKindQuotaExceeded
	case errors.Is(err, errs.ErrProviderUnavailable):
		return ErrorKindProviderUnavailable
	default:
		return ErrorKindUnknown
	}
}

// DeliveryRecord 发送记录领域模型，一经写入不可变更
type DeliveryRecord struct {
	ID         int64
	ScheduleID int64
	EntityID   int64
	Recipient  string // E.164 格式接收号码
	Body       string // 渲染后的完整正文
	Provider   string // 实际使用的供应商账号名称
	Status     DeliveryStatus
	ErrorKind  ErrorKind
	Cost       float64 // 按短信分段计费的成本，仅供展示
	Ctime      time.Time
}

// HistoryFilter 发送历史查询条件，零值字段表示不过滤
type HistoryFilter struct {
	ScheduleID int64
	EntityID   int64
	Status     DeliveryStatus
	Since      time.Time
	Limit      int
}

// RunSummary 一次计划执行的汇总结果
type RunSummary struct {
	ScheduleID int64
	DueCount   int // 本轮到期实体数
	Sent       int
	Failed     int
	Skipped    int
	// 中断本轮执行的计划级错误，实体级错误只计数不在此聚合
	Err error
}
