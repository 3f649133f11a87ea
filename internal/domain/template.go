package domain

// TemplateCategory 模板类别，决定模板允许使用的占位符集合
type TemplateCategory string

const (
	CategoryLicenseExpiry TemplateCategory = "LICENSE_EXPIRY"
	CategoryInventoryLow  TemplateCategory = "INVENTORY_LOW"
	CategorySystemNotice  TemplateCategory = "SYSTEM_NOTICE"
)

// categoryPlaceholders 各类别允许的占位符，保存模板时校验
var categoryPlaceholders = map[TemplateCategory][]string{
	CategoryLicenseExpiry: {"entity_id", "station", "expiry_date", "days_remaining"},
	CategoryInventoryLow:  {"entity_id", "station", "threshold_date", "days_remaining"},
	CategorySystemNotice:  {"station", "message"},
}

// MessageTemplate 消息模板领域模型
type MessageTemplate struct {
	ID       int64
	Name     string           // 模板名称
	Category TemplateCategory // 模板类别
	Body     string           // 模板内容，占位符使用 {name} 格式
	IsActive bool
}

// AllowedPlaceholders 返回该模板类别允许的占位符集合
func (t *MessageTemplate) AllowedPlaceholders() []string {
	return categoryPlaceholders[t.Category]
}

// IsValidCategory 判断类别是否合法
func IsValidCategory(category TemplateCategory) bool {
	_, ok := categoryPlaceholders[category]
	return ok
}

// CategoryOf 告警类型与模板类别一一对应
func CategoryOf(alertType AlertType) TemplateCategory {
	return TemplateCategory(alertType)
}
