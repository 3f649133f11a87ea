//go:build unit

package delivery

import (
	"errors"
	"testing"

	"gitee.com/flycash/alert-engine/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "标准E164", raw: "+8613800138000", want: "+8613800138000"},
		{name: "带空格和连字符", raw: "+86 138-0013-8000", want: "+8613800138000"},
		{name: "带括号", raw: "+52 (55) 1234-5678", want: "+525512345678"},
		{name: "00国际冠码", raw: "008613800138000", want: "+8613800138000"},
		{name: "缺国家码", raw: "13800138000", wantErr: true},
		{name: "太短", raw: "+8613", wantErr: true},
		{name: "含字母", raw: "+86138001380ab", wantErr: true},
		{name: "空字符串", raw: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizePhone(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errs.ErrInvalidRecipient))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCountryEnabled(t *testing.T) {
	t.Parallel()
	countries := []CountryConfig{
		{Code: "+86", Name: "China", Enabled: true},
		{Code: "+52", Name: "Mexico", Enabled: true},
		{Code: "+1", Name: "US/Canada", Enabled: false},
		// 更长前缀优先于 +1
		{Code: "+1876", Name: "Jamaica", Enabled: true},
	}

	assert.True(t, countryEnabled(countries, "+8613800138000"))
	assert.True(t, countryEnabled(countries, "+525512345678"))
	assert.False(t, countryEnabled(countries, "+12025550100"))
	assert.True(t, countryEnabled(countries, "+18765550100"))
	// 没有任何区号匹配视为未启用
	assert.False(t, countryEnabled(countries, "+4915112345678"))
	assert.False(t, countryEnabled(nil, "+8613800138000"))
}
