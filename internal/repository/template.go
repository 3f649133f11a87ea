package repository

import (
	"context"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/repository/cache"
	"gitee.com/flycash/alert-engine/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gotomicro/ego/core/elog"
)

// MessageTemplateRepository 消息模板仓储接口
type MessageTemplateRepository interface {
	// Create 创建模板
	Create(ctx context.Context, template domain.MessageTemplate) (domain.MessageTemplate, error)
	// Update 更新模板
	Update(ctx context.Context, template domain.MessageTemplate) error
	// FindByID 根据ID获取模板，优先走本地缓存
	FindByID(ctx context.Context, id int64) (domain.MessageTemplate, error)
	// List 列出全部模板
	List(ctx context.Context, offset, limit int) ([]domain.MessageTemplate, error)
	// SetActive 启停模板
	SetActive(ctx context.Context, id int64, active bool) error
}

type messageTemplateRepository struct {
	dao    dao.MessageTemplateDAO
	cache  cache.TemplateCache
	logger *elog.Component
}

func NewMessageTemplateRepository(d dao.MessageTemplateDAO, c cache.TemplateCache) MessageTemplateRepository {
	return &messageTemplateRepository{
		dao:    d,
		cache:  c,
		logger: elog.DefaultLogger,
	}
}

func (r *messageTemplateRepository) Create(ctx context.Context, template domain.MessageTemplate) (domain.MessageTemplate, error) {
	created, err := r.dao.Create(ctx, r.toEntity(template))
	if err != nil {
		return domain.MessageTemplate{}, err
	}
	return r.toDomain(created), nil
}

func (r *messageTemplateRepository) Update(ctx context.Context, template domain.MessageTemplate) error {
	if err := r.dao.Update(ctx, r.toEntity(template)); err != nil {
		return err
	}
	// 缓存失效即可，下一次读取回填
	if err := r.cache.Del(ctx, template.ID); err != nil {
		r.logger.Warn("删除模板缓存失败", elog.Int64("templateID", template.ID), elog.FieldErr(err))
	}
	return nil
}

func (r *messageTemplateRepository) FindByID(ctx context.Context, id int64) (domain.MessageTemplate, error) {
	cached, err := r.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}

	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.MessageTemplate{}, err
	}
	template := r.toDomain(found)
	if err := r.cache.Set(ctx, template); err != nil {
		r.logger.Warn("写入模板缓存失败", elog.Int64("templateID", id), elog.FieldErr(err))
	}
	return template, nil
}

func (r *messageTemplateRepository) List(ctx context.Context, offset, limit int) ([]domain.MessageTemplate, error) {
	templates, err := r.dao.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return slice.Map(templates, func(_ int, src dao.MessageTemplate) domain.MessageTemplate {
		return r.toDomain(src)
	}), nil
}

func (r *messageTemplateRepository) SetActive(ctx context.Context, id int64, active bool) error {
	if err := r.dao.SetActive(ctx, id, active); err != nil {
		return err
	}
	if err := r.cache.Del(ctx, id); err != nil {
		r.logger.Warn("删除模板缓存失败", elog.Int64("templateID", id), elog.FieldErr(err))
	}
	return nil
}

func (r *messageTemplateRepository) toDomain(d dao.MessageTemplate) domain.MessageTemplate {
	return domain.MessageTemplate{
		ID:       d.ID,
		Name:     d.Name,
		Category: domain.TemplateCategory(d.Category),
		Body:     d.Body,
		IsActive: d.IsActive,
	}
}

func (r *messageTemplateRepository) toEntity(template domain.MessageTemplate) dao.MessageTemplate {
	return dao.MessageTemplate{
		ID:       template.ID,
		Name:     template.Name,
		Category: string(template.Category),
		Body:     template.Body,
		IsActive: template.IsActive,
	}
}
