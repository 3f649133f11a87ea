package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter = errors.New("参数错误")

	ErrTemplateNotFound     = errors.New("消息模板不存在")
	ErrTemplateRender       = errors.New("模板渲染失败")
	ErrUnknownPlaceholder   = errors.New("模板包含类别之外的占位符")
	ErrTemplateInactive     = errors.New("消息模板已停用")
	ErrCreateTemplateFailed = errors.New("创建消息模板失败")

	ErrProviderNotFound   = errors.New("供应商账号不存在")
	ErrNoEligibleProvider = errors.New("无可用供应商")
	ErrQuotaExceeded      = errors.New("供应商当日额度已用完")

	ErrAuthentication      = errors.New("供应商认证失败")
	ErrInvalidRecipient    = errors.New("接收人号码非法")
	ErrCountryNotEnabled   = errors.New("接收人所属国家未启用")
	ErrTestModeRestricted  = errors.New("测试模式下接收人不在白名单中")
	ErrProviderUnavailable = errors.New("供应商暂时不可用")

	ErrScheduleNotFound = errors.New("告警计划不存在")
	ErrScheduleRunning  = errors.New("告警计划正在执行中")
	ErrScheduleInactive = errors.New("告警计划已暂停")

	ErrCreateDeliveryRecordFailed = errors.New("创建发送记录失败")
)
