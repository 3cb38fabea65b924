package main

import (
	"datacuration/internal/infra/kafka"
	"datacuration/internal/server"
	"datacuration/pkg/cache"
	"datacuration/pkg/database"
	"datacuration/pkg/observability"
)

// Config is application config.
type Config struct {
	Server        ServerConf        `json:"server"`
	Data          DataConf          `json:"data"`
	Event         EventConf         `json:"event"`
	Observability ObservabilityConf `json:"observability"`
	DataSource    DataSourceConf    `json:"datasource"`
}

// ServerConf is server config.
type ServerConf struct {
	HTTP server.HTTPConfig `json:"http"`
}

// DataConf is data config.
type DataConf struct {
	Database database.Config   `json:"database"`
	Redis    cache.RedisConfig `json:"redis"`
}

// EventConf is event config (Kafka).
type EventConf struct {
	Kafka kafka.Config `json:"kafka"`
}

// ObservabilityConf is observability config.
type ObservabilityConf struct {
	Tracing observability.TracingConfig `json:"tracing"`
}

// DataSourceConf 业务相关配置
type DataSourceConf struct {
	CacheTTL     string `json:"cache_ttl"`     // 为空或 redis 未配置时不缓存
	ReadyTimeout string `json:"ready_timeout"` // 就绪检查超时，默认3s
}
