package delivery

import (
	"fmt"
	"regexp"
	"strings"

	"gitee.com/flycash/alert-engine/internal/errs"
)

// e164Regexp E.164 格式：+ 开头，8 到 15 位数字
var e164Regexp = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// NormalizePhone 把号码归一化为 E.164 形式。
// 允许输入带空格、连字符、括号，00 前缀按国际冠码处理。
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		default:
			return r
		}
	}, raw)

	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}

	if !e164Regexp.MatchString(cleaned) {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidRecipient, raw)
	}
	return cleaned, nil
}

// CountryConfig 单个国家/地区的启用配置
type CountryConfig struct {
	// Code ISO 国际电话区号，带 + 前缀，如 +86
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// countryEnabled 按最长前缀匹配判断号码所属区号是否启用。
// 没有任何区号匹配时视为未启用，宁可拒发不误发。
func countryEnabled(countries []CountryConfig, number string) bool {
	matched := ""
	enabled := false
	for _, c := range countries {
		if strings.HasPrefix(number, c.Code) && len(c.Code) > len(matched) {
			matched = c.Code
			enabled = c.Enabled
		}
	}
	if matched == "" {
		return false
	}
	return enabled
}
