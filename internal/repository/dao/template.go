package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/errs"
	"gorm.io/gorm"
)

// MessageTemplate 消息模板表
type MessageTemplate struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;comment:'消息模板ID'"`
	Name     string `gorm:"type:VARCHAR(128);NOT NULL;comment:'模板名称'"`
	Category string `gorm:"type:ENUM('LICENSE_EXPIRY','INVENTORY_LOW','SYSTEM_NOTICE');NOT NULL;comment:'模板类别，决定允许的占位符集合'"`
	Body     string `gorm:"type:TEXT;NOT NULL;comment:'模板内容，占位符使用{name}格式'"`
	IsActive bool   `gorm:"type:TINYINT(1);NOT NULL;DEFAULT:1;comment:'是否启用'"`
	Ctime    int64
	Utime    int64
}

// TableName 重命名表
func (MessageTemplate) TableName() string {
	return "message_templates"
}

// MessageTemplateDAO 消息模板数据访问对象接口
type MessageTemplateDAO interface {
	// Create 创建模板
	Create(ctx context.Context, template MessageTemplate) (MessageTemplate, error)
	// Update 更新模板
	Update(ctx context.Context, template MessageTemplate) error
	// FindByID 根据ID获取模板
	FindByID(ctx context.Context, id int64) (MessageTemplate, error)
	// List 列出全部模板
	List(ctx context.Context, offset, limit int) ([]MessageTemplate, error)
	// SetActive 启停模板
	SetActive(ctx context.Context, id int64, active bool) error
}

type messageTemplateDAO struct {
	db *gorm.DB
}

func NewMessageTemplateDAO(db *gorm.DB) MessageTemplateDAO {
	return &messageTemplateDAO{db: db}
}

func (d *messageTemplateDAO) Create(ctx context.Context, template MessageTemplate) (MessageTemplate, error) {
	now := time.Now().UnixMilli()
	template.Ctime, template.Utime = now, now
	err := d.db.WithContext(ctx).Create(&template).Error
	if err != nil {
		return MessageTemplate{}, fmt.Errorf("%w: %w", errs.ErrCreateTemplateFailed, err)
	}
	return template, nil
}

func (d *messageTemplateDAO) Update(ctx context.Context, template MessageTemplate) error {
	result := d.db.WithContext(ctx).Model(&MessageTemplate{}).
		Where("id = ?", template.ID).
		Updates(map[string]any{
			"name":     template.Name,
			"category": template.Category,
			"body":     template.Body,
			"utime":    time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrTemplateNotFound, template.ID)
	}
	return nil
}

func (d *messageTemplateDAO) FindByID(ctx context.Context, id int64) (MessageTemplate, error) {
	var template MessageTemplate
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MessageTemplate{}, fmt.Errorf("%w: id = %d", errs.ErrTemplateNotFound, id)
		}
		return MessageTemplate{}, err
	}
	return template, nil
}

func (d *messageTemplateDAO) List(ctx context.Context, offset, limit int) ([]MessageTemplate, error) {
	var templates []MessageTemplate
	err := d.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&templates).Error
	return templates, err
}

func (d *messageTemplateDAO) SetActive(ctx context.Context, id int64, active bool) error {
	result := d.db.WithContext(ctx).Model(&MessageTemplate{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active": active,
			"utime":     time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrTemplateNotFound, id)
	}
	return nil
}
