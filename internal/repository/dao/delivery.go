package dao

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/errs"
	"github.com/sony/sonyflake"
	"gorm.io/gorm"
)

// DeliveryRecord 发送记录表，只追加不修改
type DeliveryRecord struct {
	ID         int64   `gorm:"primaryKey;comment:'雪花算法ID'"`
	ScheduleID int64   `gorm:"type:BIGINT;NOT NULL;index:idx_dedup,priority:1;uniqueIndex:idx_sent_day,priority:1;comment:'告警计划ID'"`
	EntityID   int64   `gorm:"type:BIGINT;NOT NULL;index:idx_dedup,priority:2;uniqueIndex:idx_sent_day,priority:2;comment:'实体ID，如证照ID'"`
	Recipient  string  `gorm:"type:VARCHAR(32);NOT NULL;comment:'E.164格式接收号码'"`
	Body       string  `gorm:"type:TEXT;NOT NULL;comment:'渲染后的完整正文'"`
	Provider   string  `gorm:"type:VARCHAR(64);comment:'实际使用的供应商账号名称'"`
	Status     string  `gorm:"type:ENUM('SENT','FAILED','SKIPPED');NOT NULL;index:idx_dedup,priority:3;comment:'发送结果'"`
	ErrorKind  string  `gorm:"type:VARCHAR(32);comment:'失败分类，成功时为空'"`
	Cost       float64 `gorm:"type:DECIMAL(10,4);NOT NULL;DEFAULT:0;comment:'按分段计费的成本'"`
	// 仅 SENT 记录填写，配合唯一索引把去重约束下沉到存储层，
	// 将来并行处理实体时依然保证同一实体一天至多一条成功记录
	SentDay *string `gorm:"type:VARCHAR(10);uniqueIndex:idx_sent_day,priority:3;comment:'发送成功所属日期，失败记录为NULL'"`
	Ctime   int64   `gorm:"index:idx_dedup,priority:4"`
}

// TableName 重命名表
func (DeliveryRecord) TableName() string {
	return "delivery_records"
}

// DeliveryRecordDAO 发送记录数据访问对象接口
type DeliveryRecordDAO interface {
	// Create 追加一条发送记录
	Create(ctx context.Context, record DeliveryRecord) (DeliveryRecord, error)
	// ExistsSentSince 判断窗口内是否已有成功记录
	ExistsSentSince(ctx context.Context, scheduleID, entityID int64, since time.Time) (bool, error)
	// Find 按条件查询发送历史
	Find(ctx context.Context, scheduleID, entityID int64, status string, since time.Time, limit int) ([]DeliveryRecord, error)
}

type deliveryRecordDAO struct {
	db *gorm.DB
	sf *sonyflake.Sonyflake
}

func NewDeliveryRecordDAO(db *gorm.DB, sf *sonyflake.Sonyflake) DeliveryRecordDAO {
	return &deliveryRecordDAO{db: db, sf: sf}
}

func (d *deliveryRecordDAO) Create(ctx context.Context, record DeliveryRecord) (DeliveryRecord, error) {
	id, err := d.sf.NextID()
	if err != nil {
		return DeliveryRecord{}, fmt.Errorf("%w: %w", errs.ErrCreateDeliveryRecordFailed, err)
	}
	record.ID = int64(id)
	if record.Ctime == 0 {
		record.Ctime = time.Now().UnixMilli()
	}
	err = d.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		return DeliveryRecord{}, fmt.Errorf("%w: %w", errs.ErrCreateDeliveryRecordFailed, err)
	}
	return record, nil
}

func (d *deliveryRecordDAO) ExistsSentSince(ctx context.Context, scheduleID, entityID int64, since time.Time) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("schedule_id = ? AND entity_id = ? AND status = ? AND ctime >= ?",
			scheduleID, entityID, "SENT", since.UnixMilli()).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *deliveryRecordDAO) Find(ctx context.Context, scheduleID, entityID int64, status string, since time.Time, limit int) ([]DeliveryRecord, error) {
	query := d.db.WithContext(ctx).Model(&DeliveryRecord{})
	if scheduleID > 0 {
		query = query.Where("schedule_id = ?", scheduleID)
	}
	if entityID > 0 {
		query = query.Where("entity_id = ?", entityID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if !since.IsZero() {
		query = query.Where("ctime >= ?", since.UnixMilli())
	}
	var records []DeliveryRecord
	err := query.Order("ctime DESC").Limit(limit).Find(&records).Error
	return records, err
}
