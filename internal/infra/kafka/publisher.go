package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"datacuration/internal/biz"
	"datacuration/pkg/monitoring"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

const eventVersion = "v1"

// Config Kafka 发布配置
type Config struct {
	Brokers      []string `json:"brokers"`
	Topic        string   `json:"topic"`
	WriteTimeout string   `json:"write_timeout"`
}

// Event 领域事件基础结构
type Event struct {
	EventID      string                 `json:"event_id"`
	EventType    string                 `json:"event_type"`
	EventVersion string                 `json:"event_version"`
	AggregateID  string                 `json:"aggregate_id"`
	Timestamp    time.Time              `json:"timestamp"`
	Payload      map[string]interface{} `json:"payload"`
}

// messageWriter kafka.Writer 的最小接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher Kafka事件发布器，写入经过熔断器
type EventPublisher struct {
	writer       messageWriter
	breaker      *gobreaker.CircuitBreaker
	writeTimeout time.Duration
	log          *log.Helper
}

// NewEventPublisher 创建事件发布器，未配置 broker 时返回空实现
func NewEventPublisher(c *Config, logger log.Logger) (biz.EventPublisher, func()) {
	helper := log.NewHelper(log.With(logger, "module", "infra/kafka"))
	if c == nil || len(c.Brokers) == 0 {
		helper.Warn("kafka brokers not configured, domain events are disabled")
		return NoopPublisher{}, func() {}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		Compression:            kafka.Snappy,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	p := newEventPublisher(writer, parseDuration(c.WriteTimeout, 5*time.Second), helper)
	cleanup := func() {
		if err := p.writer.Close(); err != nil {
			helper.Errorf("failed to close kafka writer: %v", err)
		}
	}
	return p, cleanup
}

func newEventPublisher(writer messageWriter, writeTimeout time.Duration, helper *log.Helper) *EventPublisher {
	p := &EventPublisher{
		writer:       writer,
		writeTimeout: writeTimeout,
		log:          helper,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-publisher",
		MaxRequests: 3,                // 半开状态下最大请求数
		Interval:    10 * time.Second, // 统计周期
		Timeout:     30 * time.Second, // 熔断器开启后等待时间
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 连续失败5次触发熔断
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			helper.Warnf("circuit breaker %s changed from %s to %s", name, from, to)
			monitoring.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return p
}

// Publish 发布事件，聚合ID作为 key 保证同一数据源的事件有序
func (p *EventPublisher) Publish(ctx context.Context, eventType, aggregateID string, payload map[string]interface{}) error {
	event := Event{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: eventVersion,
		AggregateID:  aggregateID,
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_version", Value: []byte(event.EventVersion)},
		},
		Time: event.Timestamp,
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
		return nil, p.writer.WriteMessages(ctx, message)
	})
	if err != nil {
		monitoring.EventsPublishedTotal.WithLabelValues(eventType, monitoring.ResultError).Inc()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	monitoring.EventsPublishedTotal.WithLabelValues(eventType, monitoring.ResultSuccess).Inc()
	p.log.WithContext(ctx).Debugf("event published: type=%s aggregate=%s id=%s", eventType, aggregateID, event.EventID)
	return nil
}

// NoopPublisher 不发送事件
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(ctx context.Context, eventType, aggregateID string, payload map[string]interface{}) error {
	return nil
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
