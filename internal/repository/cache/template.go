package cache

import (
	"context"
	"fmt"

	"gitee.com/flycash/alert-engine/internal/domain"
)

// TemplateCache 消息模板缓存接口
type TemplateCache interface {
	Get(ctx context.Context, id int64) (domain.MessageTemplate, error)
	Set(ctx context.Context, template domain.MessageTemplate) error
	Del(ctx context.Context, id int64) error
}

// TemplateKey 模板缓存键
func TemplateKey(id int64) string {
	return fmt.Sprintf("alert_engine:template:%d", id)
}
