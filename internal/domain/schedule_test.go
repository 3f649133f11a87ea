//go:build unit

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleValidate(t *testing.T) {
	t.Parallel()
	valid := AlertSchedule{
		Name:              "证照提醒",
		AlertType:         AlertTypeLicenseExpiry,
		TriggerWindowDays: 30,
		FrequencyDays:     7,
		TemplateID:        1,
		StationFilter:     StationAll,
	}
	assert.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(s *AlertSchedule)
	}{
		{name: "空名称", mutate: func(s *AlertSchedule) { s.Name = "" }},
		{name: "未知告警类型", mutate: func(s *AlertSchedule) { s.AlertType = "WEATHER" }},
		{name: "负触发窗口", mutate: func(s *AlertSchedule) { s.TriggerWindowDays = -1 }},
		{name: "零频率", mutate: func(s *AlertSchedule) { s.FrequencyDays = 0 }},
		{name: "缺模板", mutate: func(s *AlertSchedule) { s.TemplateID = 0 }},
		{name: "空站点过滤", mutate: func(s *AlertSchedule) { s.StationFilter = "" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := valid
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestScheduleClock(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	s := AlertSchedule{FrequencyDays: 7, IsActive: true, NextRun: now.Add(-time.Minute)}

	assert.True(t, s.IsDue(now))
	s.AdvanceClock(now)
	assert.Equal(t, now, s.LastRun)
	assert.Equal(t, now.Add(7*24*time.Hour), s.NextRun)
	assert.False(t, s.IsDue(now))
	// 正好到点也算到期
	assert.True(t, s.IsDue(s.NextRun))
}

func TestCandidateDaysUntil(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	c := CandidateEntity{ExpiryDate: now.AddDate(0, 0, 15)}
	assert.Equal(t, 15, c.DaysUntil(now))

	// 已过期按负数计
	c = CandidateEntity{ExpiryDate: now.AddDate(0, 0, -3)}
	assert.Equal(t, -3, c.DaysUntil(now))

	c = CandidateEntity{ExpiryDate: now}
	assert.Zero(t, c.DaysUntil(now))
}
