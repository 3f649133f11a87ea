package template

import (
	"context"
	"fmt"
	"strings"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	"gitee.com/flycash/alert-engine/internal/repository"
)

// Service 消息模板管理服务接口
type Service interface {
	// Create 创建模板，保存时即校验占位符合法性
	Create(ctx context.Context, template domain.MessageTemplate) (domain.MessageTemplate, error)
	// Update 更新模板
	Update(ctx context.Context, template domain.MessageTemplate) error
	// GetByID 获取模板
	GetByID(ctx context.Context, id int64) (domain.MessageTemplate, error)
	// List 列出模板
	List(ctx context.Context, offset, limit int) ([]domain.MessageTemplate, error)
	// SetActive 启停模板
	SetActive(ctx context.Context, id int64, active bool) error
}

type service struct {
	repo repository.MessageTemplateRepository
}

func NewService(repo repository.MessageTemplateRepository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, template domain.MessageTemplate) (domain.MessageTemplate, error) {
	if err := s.validate(template); err != nil {
		return domain.MessageTemplate{}, err
	}
	template.IsActive = true
	return s.repo.Create(ctx, template)
}

func (s *service) Update(ctx context.Context, template domain.MessageTemplate) error {
	if template.ID <= 0 {
		return fmt.Errorf("%w: 模板ID必须大于0", errs.ErrInvalidParameter)
	}
	if err := s.validate(template); err != nil {
		return err
	}
	return s.repo.Update(ctx, template)
}

func (s *service) GetByID(ctx context.Context, id int64) (domain.MessageTemplate, error) {
	if id <= 0 {
		return domain.MessageTemplate{}, fmt.Errorf("%w: 模板ID必须大于0", errs.ErrInvalidParameter)
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, offset, limit int) ([]domain.MessageTemplate, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *service) SetActive(ctx context.Context, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("%w: 模板ID必须大于0", errs.ErrInvalidParameter)
	}
	return s.repo.SetActive(ctx, id, active)
}

// validate 保存时校验：占位符越界在这里就失败，不等到渲染
func (s *service) validate(template domain.MessageTemplate) error {
	if template.Name == "" {
		return fmt.Errorf("%w: 模板名称", errs.ErrInvalidParameter)
	}
	if template.Body == "" {
		return fmt.Errorf("%w: 模板内容", errs.ErrInvalidParameter)
	}
	if !domain.IsValidCategory(template.Category) {
		return fmt.Errorf("%w: 模板类别 = %q", errs.ErrInvalidParameter, template.Category)
	}

	allowed := make(map[string]struct{})
	for _, name := range template.AllowedPlaceholders() {
		allowed[name] = struct{}{}
	}

	var unknown []string
	for _, name := range Placeholders(template.Body) {
		if _, ok := allowed[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: 类别 %s 不允许 [%s]", errs.ErrUnknownPlaceholder, template.Category, strings.Join(unknown, ", "))
	}
	return nil
}
