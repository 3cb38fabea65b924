package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormLogger "gorm.io/gorm/logger"
)

func TestConfig_DSN(t *testing.T) {
	c := &Config{Source: "postgres://u:p@db:5432/x"}
	assert.Equal(t, "postgres://u:p@db:5432/x", c.DSN())

	c = &Config{Host: "db", Port: 5432, User: "u", Password: "p", Database: "datacuration"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=datacuration sslmode=disable TimeZone=UTC", c.DSN())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormLogger.Silent, parseLogLevel("silent"))
	assert.Equal(t, gormLogger.Info, parseLogLevel("info"))
	assert.Equal(t, gormLogger.Warn, parseLogLevel(""))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 30*time.Minute, parseDuration("30m", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("bad", time.Hour))
}
