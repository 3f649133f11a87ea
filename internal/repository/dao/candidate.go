package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AlertCandidate 候选实体只读视图。
// 由外部记录存储（业务系统的证照/库存表）维护，引擎只查询不写入。
type AlertCandidate struct {
	EntityID       int64  `gorm:"primaryKey;column:entity_id;comment:'业务实体ID'"`
	AlertType      string `gorm:"type:ENUM('LICENSE_EXPIRY','INVENTORY_LOW','SYSTEM_NOTICE');NOT NULL;index:idx_type_station_expiry,priority:1;comment:'候选所属告警类型'"`
	ExpiryDate     int64  `gorm:"type:BIGINT;NOT NULL;index:idx_type_station_expiry,priority:3;comment:'到期日或阈值日毫秒数'"`
	Station        string `gorm:"type:VARCHAR(32);NOT NULL;index:idx_type_station_expiry,priority:2;comment:'站点编码'"`
	ContactNumbers string `gorm:"type:VARCHAR(512);NOT NULL;comment:'联系人号码JSON数组'"`
}

// TableName 重命名表
func (AlertCandidate) TableName() string {
	return "alert_candidates"
}

// AlertCandidateDAO 候选实体数据访问对象接口
type AlertCandidateDAO interface {
	// FindByTypeAndStation 查找到期日不晚于 before 的候选实体。
	// 没有下界：已过期的实体仍然是候选，告警目的在于催办。
	FindByTypeAndStation(ctx context.Context, alertType, station string, before time.Time) ([]AlertCandidate, error)
}

type alertCandidateDAO struct {
	db *gorm.DB
}

func NewAlertCandidateDAO(db *gorm.DB) AlertCandidateDAO {
	return &alertCandidateDAO{db: db}
}

func (d *alertCandidateDAO) FindByTypeAndStation(ctx context.Context, alertType, station string, before time.Time) ([]AlertCandidate, error) {
	query := d.db.WithContext(ctx).
		Where("alert_type = ? AND expiry_date <= ?", alertType, before.UnixMilli())
	if station != "ALL" {
		query = query.Where("station = ?", station)
	}
	var candidates []AlertCandidate
	err := query.Find(&candidates).Error
	return candidates, err
}
