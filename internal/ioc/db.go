package ioc

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/ego-component/egorm"
	// 注册 database/sql 的 mysql 驱动，启动探活直接用原生连接
	_ "github.com/go-sql-driver/mysql"
	"github.com/gotomicro/ego/core/econf"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	dbPingTimeout   = 5 * time.Second
	dbRetryInterval = time.Second
	dbMaxRetryWait  = 10 * time.Second
	dbMaxRetries    = 10
)

func InitDB() *egorm.Component {
	type Config struct {
		DSN string `yaml:"dsn"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("mysql", &cfg); err != nil {
		panic(err)
	}
	if err := waitForDB(cfg.DSN); err != nil {
		panic(fmt.Errorf("等待数据库就绪失败: %w", err))
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		panic(fmt.Errorf("数据库连接失败: %w", err))
	}
	return db
}

// waitForDB 指数退避探活，直到数据库可用或重试耗尽。
// 容器化部署时数据库可能比服务起得慢
func waitForDB(dsn string) error {
	probe, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer probe.Close()

	strategy, err := retry.NewExponentialBackoffRetryStrategy(dbRetryInterval, dbMaxRetryWait, dbMaxRetries)
	if err != nil {
		return err
	}
	for {
		ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
		pingErr := probe.PingContext(ctx)
		cancel()
		if pingErr == nil {
			return nil
		}
		next, ok := strategy.Next()
		if !ok {
			return fmt.Errorf("数据库探活重试耗尽: %w", pingErr)
		}
		time.Sleep(next)
	}
}
