package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker_Ready(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.Register(NewPingChecker("database", func(ctx context.Context) error { return nil }))
	h.Register(NewPingChecker("redis", func(ctx context.Context) error { return nil }))

	ready, results := h.Ready(context.Background())
	assert.True(t, ready)
	assert.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["database"].Status)
}

func TestHealthChecker_NotReady(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.Register(NewPingChecker("database", func(ctx context.Context) error { return nil }))
	h.Register(NewPingChecker("redis", func(ctx context.Context) error { return errors.New("connection refused") }))

	ready, results := h.Ready(context.Background())
	assert.False(t, ready)
	assert.Equal(t, StatusUnhealthy, results["redis"].Status)
	assert.Equal(t, "connection refused", results["redis"].Error)
}

func TestHealthChecker_Timeout(t *testing.T) {
	h := NewHealthChecker(10 * time.Millisecond)
	h.Register(NewPingChecker("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	ready, results := h.Ready(context.Background())
	assert.False(t, ready)
	assert.Equal(t, context.DeadlineExceeded.Error(), results["slow"].Error)
}

func TestHealthChecker_NoCheckers(t *testing.T) {
	ready, results := NewHealthChecker(0).Ready(context.Background())
	assert.True(t, ready)
	assert.Empty(t, results)
}
