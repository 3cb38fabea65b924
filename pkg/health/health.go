package health

import (
	"context"
	"sync"
	"time"
)

// Status 健康状态
type Status string

const (
	// StatusHealthy 健康
	StatusHealthy Status = "healthy"
	// StatusUnhealthy 不健康
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult 检查结果
type CheckResult struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
}

// Checker 健康检查器接口
type Checker interface {
	// Check 执行健康检查
	Check(ctx context.Context) CheckResult
	// Name 检查器名称
	Name() string
}

// HealthChecker 健康检查管理器
type HealthChecker struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewHealthChecker 创建健康检查管理器，timeout 为单次检查的超时时间
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthChecker{
		checkers: make(map[string]Checker),
		timeout:  timeout,
	}
}

// Register 注册检查器
func (h *HealthChecker) Register(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[checker.Name()] = checker
}

// Check 并发执行所有检查
func (h *HealthChecker) Check(ctx context.Context) map[string]CheckResult {
	h.mu.RLock()
	checkers := make([]Checker, 0, len(h.checkers))
	for _, checker := range h.checkers {
		checkers = append(checkers, checker)
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checkers))
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			result := c.Check(ctx)
			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

// Ready 所有检查都健康时返回 true
func (h *HealthChecker) Ready(ctx context.Context) (bool, map[string]CheckResult) {
	results := h.Check(ctx)
	for _, result := range results {
		if result.Status != StatusHealthy {
			return false, results
		}
	}
	return true, results
}

// PingChecker 基于 ping 函数的依赖检查（数据库、Redis）
type PingChecker struct {
	name   string
	pingFn func(context.Context) error
}

// NewPingChecker 创建检查器
func NewPingChecker(name string, pingFn func(context.Context) error) *PingChecker {
	return &PingChecker{
		name:   name,
		pingFn: pingFn,
	}
}

// Name 返回检查器名称
func (p *PingChecker) Name() string {
	return p.name
}

// Check 执行检查
func (p *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := p.pingFn(ctx)
	result := CheckResult{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}
