//go:build unit

package dao

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gitee.com/flycash/alert-engine/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB 基于 sqlmock 建一个 gorm 连接。
// 关掉默认事务，断言只需要关注业务语句本身
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestProviderReserve(t *testing.T) {
	const day = "2026-08-28"

	t.Run("跨日第一条触发滚动", func(t *testing.T) {
		db, mock := newMockDB(t)
		d := NewProviderAccountDAO(db)

		// 滚动更新命中一行，直接完成占用
		mock.ExpectExec("UPDATE `provider_accounts` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, d.Reserve(t.Context(), 1, day))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("当日已初始化走条件自增", func(t *testing.T) {
		db, mock := newMockDB(t)
		d := NewProviderAccountDAO(db)

		mock.ExpectExec("UPDATE `provider_accounts` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("UPDATE `provider_accounts` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, d.Reserve(t.Context(), 1, day))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("额度满时两条更新都不命中", func(t *testing.T) {
		db, mock := newMockDB(t)
		d := NewProviderAccountDAO(db)

		mock.ExpectExec("UPDATE `provider_accounts` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("UPDATE `provider_accounts` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := d.Reserve(t.Context(), 1, day)
		assert.True(t, errors.Is(err, errs.ErrQuotaExceeded))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("数据库错误原样上抛", func(t *testing.T) {
		db, mock := newMockDB(t)
		d := NewProviderAccountDAO(db)

		dbErr := sql.ErrConnDone
		mock.ExpectExec("UPDATE `provider_accounts` SET").
			WillReturnError(dbErr)

		err := d.Reserve(t.Context(), 1, day)
		assert.True(t, errors.Is(err, dbErr))
	})
}

func TestProviderResetDay(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewProviderAccountDAO(db)

	mock.ExpectExec("UPDATE `provider_accounts` SET").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := d.ResetDay(t.Context(), "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewProviderAccountDAO(db)

	mock.ExpectQuery("SELECT \\* FROM `provider_accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := d.FindByID(t.Context(), 42)
	assert.True(t, errors.Is(err, errs.ErrProviderNotFound))
}
