//go:build unit

package runner

import (
	"errors"
	"testing"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduleFixture() (ScheduleService, *mockScheduleRepo) {
	repo := newMockScheduleRepo()
	templateRepo := &mockTemplateRepo{templates: map[int64]domain.MessageTemplate{
		1: {ID: 1, Category: domain.CategoryLicenseExpiry, Body: "{entity_id}", IsActive: true},
		2: {ID: 2, Category: domain.CategorySystemNotice, Body: "{message}", IsActive: true},
	}}
	return NewScheduleService(repo, templateRepo, Defaults{
		FrequencyDays:     7,
		TriggerWindowDays: 30,
	}), repo
}

func validSchedule() domain.AlertSchedule {
	return domain.AlertSchedule{
		Name:              "MOBIL 站证照提醒",
		AlertType:         domain.AlertTypeLicenseExpiry,
		TriggerWindowDays: 30,
		FrequencyDays:     7,
		TemplateID:        1,
		StationFilter:     "MOBIL",
	}
}

func TestScheduleCreate(t *testing.T) {
	t.Parallel()

	t.Run("新计划立即到期", func(t *testing.T) {
		t.Parallel()
		svc, _ := newScheduleFixture()
		before := time.Now()
		created, err := svc.Create(t.Context(), validSchedule())
		require.NoError(t, err)
		assert.True(t, created.IsActive)
		assert.Positive(t, created.ID)
		// next_run 就是创建时间，下一轮扫描直接执行
		assert.False(t, created.NextRun.Before(before))
		assert.True(t, created.IsDue(time.Now()))
	})

	t.Run("模板类别与告警类型不匹配", func(t *testing.T) {
		t.Parallel()
		svc, _ := newScheduleFixture()
		schedule := validSchedule()
		schedule.TemplateID = 2
		_, err := svc.Create(t.Context(), schedule)
		assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
	})

	t.Run("模板不存在", func(t *testing.T) {
		t.Parallel()
		svc, _ := newScheduleFixture()
		schedule := validSchedule()
		schedule.TemplateID = 99
		_, err := svc.Create(t.Context(), schedule)
		assert.True(t, errors.Is(err, errs.ErrTemplateNotFound))
	})

	t.Run("零值字段取缺省", func(t *testing.T) {
		t.Parallel()
		svc, _ := newScheduleFixture()
		schedule := validSchedule()
		schedule.FrequencyDays = 0
		schedule.TriggerWindowDays = 0
		created, err := svc.Create(t.Context(), schedule)
		require.NoError(t, err)
		assert.Equal(t, 7, created.FrequencyDays)
		assert.Equal(t, 30, created.TriggerWindowDays)
	})

	t.Run("显式值不被缺省覆盖", func(t *testing.T) {
		t.Parallel()
		svc, _ := newScheduleFixture()
		schedule := validSchedule()
		schedule.FrequencyDays = 14
		schedule.TriggerWindowDays = 60
		created, err := svc.Create(t.Context(), schedule)
		require.NoError(t, err)
		assert.Equal(t, 14, created.FrequencyDays)
		assert.Equal(t, 60, created.TriggerWindowDays)
	})

	t.Run("非法字段", func(t *testing.T) {
		t.Parallel()
		svc, _ := newScheduleFixture()

		// 负数不是零值，不走缺省，直接拒绝
		schedule := validSchedule()
		schedule.FrequencyDays = -1
		_, err := svc.Create(t.Context(), schedule)
		assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

		schedule = validSchedule()
		schedule.TriggerWindowDays = -1
		_, err = svc.Create(t.Context(), schedule)
		assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

		schedule = validSchedule()
		schedule.AlertType = "WEATHER"
		_, err = svc.Create(t.Context(), schedule)
		assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
	})
}

func TestScheduleUpdateKeepsClock(t *testing.T) {
	t.Parallel()
	svc, repo := newScheduleFixture()
	created, err := svc.Create(t.Context(), validSchedule())
	require.NoError(t, err)

	// 模拟跑过一轮
	lastRun := time.Now().Add(-time.Hour)
	nextRun := lastRun.Add(7 * 24 * time.Hour)
	require.NoError(t, repo.AdvanceClock(t.Context(), created.ID, lastRun, nextRun))

	created.TriggerWindowDays = 45
	require.NoError(t, svc.Update(t.Context(), created))

	got, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.TriggerWindowDays)
}

func TestScheduleSetActive(t *testing.T) {
	t.Parallel()
	svc, _ := newScheduleFixture()
	created, err := svc.Create(t.Context(), validSchedule())
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(t.Context(), created.ID, false))
	got, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, domain.ScheduleStatusPaused, got.Status(time.Now()))

	require.NoError(t, svc.SetActive(t.Context(), created.ID, true))
	got, err = svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}
