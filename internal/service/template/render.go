package template

import (
	"fmt"
	"regexp"
	"strings"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
)

// placeholderRegexp 占位符格式 {name}
var placeholderRegexp = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// segmentSize 短信分段长度，按 7-bit 编码估算
const segmentSize = 160

// RenderResult 渲染结果
type RenderResult struct {
	Body string
	// Segments 预估的短信分段数，仅供展示计费。
	// 超长不截断，由厂商分段发送
	Segments int
}

// Placeholders 提取模板正文中的占位符，按出现顺序去重
func Placeholders(body string) []string {
	matches := placeholderRegexp.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// SegmentCount 计算正文的短信分段数
func SegmentCount(body string) int {
	return (len(body) + segmentSize - 1) / segmentSize
}

// Render 渲染模板。正文中的每个占位符都必须能在 params 中找到，
// 缺失即硬失败，绝不把 {xxx} 原样留在发出去的短信里。
func Render(tpl domain.MessageTemplate, params map[string]string) (RenderResult, error) {
	var missing []string
	for _, name := range Placeholders(tpl.Body) {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return RenderResult{}, fmt.Errorf("%w: 缺少占位符参数 [%s]", errs.ErrTemplateRender, strings.Join(missing, ", "))
	}

	body := placeholderRegexp.ReplaceAllStringFunc(tpl.Body, func(token string) string {
		name := token[1 : len(token)-1]
		return params[name]
	})

	return RenderResult{
		Body:     body,
		Segments: SegmentCount(body),
	}, nil
}
