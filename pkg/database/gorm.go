package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Config 数据库配置
type Config struct {
	Driver   string `json:"driver"`
	Source   string `json:"source"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`

	// 连接池配置
	MaxIdleConns    int    `json:"max_idle_conns"`     // 默认10
	MaxOpenConns    int    `json:"max_open_conns"`     // 默认100
	ConnMaxLifetime string `json:"conn_max_lifetime"`  // 默认1h
	ConnMaxIdleTime string `json:"conn_max_idle_time"` // 默认15m

	// LogLevel gorm 日志级别: silent/error/warn/info，默认 warn
	LogLevel string `json:"log_level"`

	// 健康检查超时，默认5s
	HealthCheckTimeout string `json:"health_check_timeout"`
}

// DSN 返回连接串，未配置 Source 时由各字段拼接
func (c *Config) DSN() string {
	if c.Source != "" {
		return c.Source
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode,
	)
}

// NewDB 创建数据库连接
func NewDB(c *Config, logger log.Logger) (*gorm.DB, error) {
	logHelper := log.NewHelper(logger)

	// 安全日志：不记录密码
	logHelper.Infof("connecting to database: driver=%s host=%s:%d database=%s user=%s",
		c.Driver, c.Host, c.Port, c.Database, c.User)

	var dialector gorm.Dialector
	switch c.Driver {
	case "postgres", "":
		dialector = postgres.Open(c.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(parseLogLevel(c.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		logHelper.Errorf("failed to connect database: %v", err)
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxIdleConns := c.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 10
	}
	maxOpenConns := c.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = 100
	}
	connMaxLifetime := parseDuration(c.ConnMaxLifetime, time.Hour)
	connMaxIdleTime := parseDuration(c.ConnMaxIdleTime, 15*time.Minute)

	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	logHelper.Infof("connection pool configured: maxIdle=%d maxOpen=%d maxLifetime=%v maxIdleTime=%v",
		maxIdleConns, maxOpenConns, connMaxLifetime, connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), parseDuration(c.HealthCheckTimeout, 5*time.Second))
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	logHelper.Info("database connected and health check passed")
	return db, nil
}

// Ping 检查数据库连接
func Ping(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func parseLogLevel(level string) gormLogger.LogLevel {
	switch level {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
