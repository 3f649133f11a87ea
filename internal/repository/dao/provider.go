package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/errs"
	"gorm.io/gorm"
)

// ProviderAccount 供应商账号表
type ProviderAccount struct {
	ID               int64  `gorm:"primaryKey;autoIncrement;comment:'供应商账号ID'"`
	Name             string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:idx_name;comment:'账号名称'"`
	Code             string `gorm:"type:VARCHAR(32);NOT NULL;comment:'厂商编码：aliyun/tencentcloud'"`
	SenderID         string `gorm:"type:VARCHAR(64);NOT NULL;comment:'短信签名/发送方名称'"`
	RegionID         string `gorm:"type:VARCHAR(32);comment:'厂商区域'"`
	APIKey           string `gorm:"type:VARCHAR(256);NOT NULL;comment:'API密钥'"`
	APISecret        string `gorm:"type:VARCHAR(256);NOT NULL;comment:'API密钥'"`
	AppID            string `gorm:"type:VARCHAR(64);comment:'厂商应用ID，腾讯云需要'"`
	VendorTemplateID string `gorm:"type:VARCHAR(64);comment:'厂商侧通用模板ID'"`
	IsTestMode       bool   `gorm:"type:TINYINT(1);NOT NULL;DEFAULT:0;comment:'测试模式，仅允许白名单号码'"`
	DailyQuota       int32  `gorm:"type:INT;NOT NULL;comment:'每日发送上限'"`
	UsedToday        int32  `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'当日已用量'"`
	QuotaDate        string `gorm:"type:VARCHAR(10);NOT NULL;DEFAULT:'';comment:'当日额度所属日期'"`
	Priority         int    `gorm:"type:INT;NOT NULL;DEFAULT:100;index:idx_status_priority,priority:2;comment:'选择顺序，越小越优先'"`
	Status           string `gorm:"type:ENUM('ACTIVE','INACTIVE');NOT NULL;DEFAULT:'ACTIVE';index:idx_status_priority,priority:1;comment:'账号状态'"`
	Ctime            int64
	Utime            int64
}

// TableName 重命名表
func (ProviderAccount) TableName() string {
	return "provider_accounts"
}

// ProviderAccountDAO 供应商账号数据访问对象接口
type ProviderAccountDAO interface {
	// Create 创建账号
	Create(ctx context.Context, account ProviderAccount) (ProviderAccount, error)
	// Update 更新账号配置
	Update(ctx context.Context, account ProviderAccount) error
	// FindByID 根据ID查找账号
	FindByID(ctx context.Context, id int64) (ProviderAccount, error)
	// FindActive 按优先级列出全部激活账号
	FindActive(ctx context.Context) ([]ProviderAccount, error)
	// Reserve 为指定日期的额度占用一条，额度不足时返回 errs.ErrQuotaExceeded。
	// 占用与发送解耦：发送侧在网络调用前占用，厂商侧拒绝不回滚。
	Reserve(ctx context.Context, id int64, day string) error
	// ResetDay 把额度日期落后的账号滚动到指定日期并清零用量
	ResetDay(ctx context.Context, day string) (int64, error)
}

type providerAccountDAO struct {
	db *gorm.DB
}

func NewProviderAccountDAO(db *gorm.DB) ProviderAccountDAO {
	return &providerAccountDAO{db: db}
}

func (d *providerAccountDAO) Create(ctx context.Context, account ProviderAccount) (ProviderAccount, error) {
	now := time.Now().UnixMilli()
	account.Ctime, account.Utime = now, now
	err := d.db.WithContext(ctx).Create(&account).Error
	if err != nil {
		return ProviderAccount{}, err
	}
	return account, nil
}

func (d *providerAccountDAO) Update(ctx context.Context, account ProviderAccount) error {
	result := d.db.WithContext(ctx).Model(&ProviderAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"name":               account.Name,
			"code":               account.Code,
			"sender_id":          account.SenderID,
			"region_id":          account.RegionID,
			"api_key":            account.APIKey,
			"api_secret":         account.APISecret,
			"app_id":             account.AppID,
			"vendor_template_id": account.VendorTemplateID,
			"is_test_mode":       account.IsTestMode,
			"daily_quota":        account.DailyQuota,
			"priority":           account.Priority,
			"status":             account.Status,
			"utime":              time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrProviderNotFound, account.ID)
	}
	return nil
}

func (d *providerAccountDAO) FindByID(ctx context.Context, id int64) (ProviderAccount, error) {
	var account ProviderAccount
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProviderAccount{}, fmt.Errorf("%w: id = %d", errs.ErrProviderNotFound, id)
		}
		return ProviderAccount{}, err
	}
	return account, nil
}

func (d *providerAccountDAO) FindActive(ctx context.Context) ([]ProviderAccount, error) {
	var accounts []ProviderAccount
	err := d.db.WithContext(ctx).
		Where("status = ?", "ACTIVE").
		Order("priority ASC, id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (d *providerAccountDAO) Reserve(ctx context.Context, id int64, day string) error {
	now := time.Now().UnixMilli()

	// 先尝试跨日滚动：额度日期不是当天说明是当天第一条，重置并直接占用
	result := d.db.WithContext(ctx).Model(&ProviderAccount{}).
		Where("id = ? AND status = ? AND quota_date <> ? AND daily_quota > 0", id, "ACTIVE", day).
		Updates(map[string]any{
			"quota_date": day,
			"used_today": 1,
			"utime":      now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// 当日额度已初始化，条件自增，额度满时影响行数为0
	result = d.db.WithContext(ctx).Model(&ProviderAccount{}).
		Where("id = ? AND status = ? AND quota_date = ? AND used_today < daily_quota", id, "ACTIVE", day).
		Updates(map[string]any{
			"used_today": gorm.Expr("used_today + 1"),
			"utime":      now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrQuotaExceeded, id)
	}
	return nil
}

func (d *providerAccountDAO) ResetDay(ctx context.Context, day string) (int64, error) {
	result := d.db.WithContext(ctx).Model(&ProviderAccount{}).
		Where("quota_date <> ?", day).
		Updates(map[string]any{
			"quota_date": day,
			"used_today": 0,
			"utime":      time.Now().UnixMilli(),
		})
	return result.RowsAffected, result.Error
}
