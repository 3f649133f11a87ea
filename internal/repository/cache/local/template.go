package local

import (
	"context"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/repository/cache"
	ca "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Cache 进程内模板缓存。模板数量少、读多写少，本地缓存即可
type Cache struct {
	c *ca.Cache
}

func NewLocalTemplateCache(c *ca.Cache) *Cache {
	return &Cache{c: c}
}

func (l *Cache) Get(_ context.Context, id int64) (domain.MessageTemplate, error) {
	v, ok := l.c.Get(cache.TemplateKey(id))
	if !ok {
		return domain.MessageTemplate{}, ErrKeyNotFound
	}
	return v.(domain.MessageTemplate), nil
}

func (l *Cache) Set(_ context.Context, template domain.MessageTemplate) error {
	l.c.Set(cache.TemplateKey(template.ID), template, ca.DefaultExpiration)
	return nil
}

func (l *Cache) Del(_ context.Context, id int64) error {
	l.c.Delete(cache.TemplateKey(id))
	return nil
}
