package db

import (
	"fmt"
	"net"
	"time"

	"tunebox/config"
	"tunebox/logger"
	"tunebox/model"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLDSN 根据配置拼接 MySQL 连接串
func MySQLDSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// gormWriter routes gorm's logger output through zap.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Warn("[DB] " + fmt.Sprintf(format, args...))
}

func newGormLogger(w gormlogger.Writer, logSQL bool) gormlogger.Interface {
	level := gormlogger.Warn
	if logSQL {
		level = gormlogger.Info
	}
	return gormlogger.New(w, gormlogger.Config{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
		// repositories turn misses into (nil, nil)
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func gormConfig(logSQL bool) *gorm.Config {
	return &gorm.Config{
		Logger:                                   newGormLogger(gormWriter{}, logSQL),
		DisableForeignKeyConstraintWhenMigrating: true,
		// duplicate-key violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}
}

// ConnectGormDB 建立 GORM 数据库连接
func ConnectGormDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return OpenSQLite(cfg.DBPath, cfg.DBLogSQL)
	case "", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gdb, err := gorm.Open(gormmysql.Open(MySQLDSN(cfg)), gormConfig(cfg.DBLogSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("[DB] connected", logger.String("driver", "mysql"), logger.String("host", cfg.DBHost))
	return gdb, nil
}

// OpenSQLite opens a SQLite database. A single connection is used so that
// in-memory databases stay consistent and writers never contend.
func OpenSQLite(dsn string, logSQL bool) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig(logSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}

// CloseGormDB 关闭 GORM 数据库连接
func CloseGormDB(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate 迁移 users / songs / favorites 三张表
func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("GORM database not initialized")
	}
	if err := gdb.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("[DB] models migrated")
	return nil
}
