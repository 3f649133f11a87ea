//go:build unit

package dao

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gitee.com/flycash/alert-engine/internal/errs"
	"github.com/sony/sonyflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestIDGenerator 固定机器ID的生成器。
// 默认的私有IP推导在测试环境里可能失败并返回 nil
func newTestIDGenerator(t *testing.T) *sonyflake.Sonyflake {
	t.Helper()
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) {
			return 1, nil
		},
	})
	require.NoError(t, err)
	return sf
}

func TestDeliveryRecordCreate(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewDeliveryRecordDAO(db, newTestIDGenerator(t))

	mock.ExpectExec("INSERT INTO `delivery_records`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := d.Create(t.Context(), DeliveryRecord{
		ScheduleID: 1,
		EntityID:   88021,
		Recipient:  "+8613800138000",
		Body:       "车辆 88021 证照即将到期",
		Provider:   "阿里云主账号",
		Status:     "SENT",
	})
	require.NoError(t, err)
	// ID 与写入时间由 DAO 生成
	assert.Positive(t, created.ID)
	assert.Positive(t, created.Ctime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRecordCreateFailure(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewDeliveryRecordDAO(db, newTestIDGenerator(t))

	mock.ExpectExec("INSERT INTO `delivery_records`").
		WillReturnError(errors.New("duplicate entry"))

	_, err := d.Create(t.Context(), DeliveryRecord{ScheduleID: 1, EntityID: 1, Status: "SENT"})
	assert.True(t, errors.Is(err, errs.ErrCreateDeliveryRecordFailed))
}

func TestExistsSentSince(t *testing.T) {
	since := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	t.Run("窗口内有成功记录", func(t *testing.T) {
		db, mock := newMockDB(t)
		d := NewDeliveryRecordDAO(db, newTestIDGenerator(t))

		mock.ExpectQuery("SELECT count").
			WithArgs(int64(1), int64(88021), "SENT", since.UnixMilli()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := d.ExistsSentSince(t.Context(), 1, 88021, since)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("窗口内无记录", func(t *testing.T) {
		db, mock := newMockDB(t)
		d := NewDeliveryRecordDAO(db, newTestIDGenerator(t))

		mock.ExpectQuery("SELECT count").
			WithArgs(int64(1), int64(88021), "SENT", since.UnixMilli()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := d.ExistsSentSince(t.Context(), 1, 88021, since)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestDeliveryRecordFindFilters(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewDeliveryRecordDAO(db, newTestIDGenerator(t))

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "entity_id", "status"}).
		AddRow(100, 1, 88021, "SENT").
		AddRow(101, 1, 88021, "FAILED")
	mock.ExpectQuery("SELECT \\* FROM `delivery_records`").
		WillReturnRows(rows)

	records, err := d.Find(t.Context(), 1, 88021, "", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(100), records[0].ID)
}
