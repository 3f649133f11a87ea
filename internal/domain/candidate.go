package domain

import (
	"time"
)

// CandidateEntity 候选实体快照，由外部记录存储提供，引擎只读
type CandidateEntity struct {
	ID             int64
	ExpiryDate     time.Time // 到期日或阈值日
	Station        string    // 所属站点编码
	ContactNumbers []string  // 联系人号码，按优先级排列
}

// DaysUntil 距离到期日的天数，已过期为负数。
// 已过期的实体仍然在告警范围内：告警的目的是催办，不只是预警。
func (c *CandidateEntity) DaysUntil(now time.Time) int {
	return int(c.ExpiryDate.Sub(now).Hours() / hoursPerDay)
}
