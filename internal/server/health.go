package server

import (
	"net/http"
	"time"

	"datacuration/pkg/health"

	"github.com/gin-gonic/gin"
)

// ReadinessResponse 就绪检查响应
type ReadinessResponse struct {
	Status       string                        `json:"status"`
	Timestamp    int64                         `json:"timestamp"`
	Dependencies map[string]health.CheckResult `json:"dependencies"`
}

// healthHandler 存活检查（K8s liveness）
func (s *HTTPServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    string(health.StatusHealthy),
		"timestamp": time.Now().Unix(),
	})
}

// readinessHandler 就绪检查（K8s readiness），依赖不可用时返回503
func (s *HTTPServer) readinessHandler(c *gin.Context) {
	resp := ReadinessResponse{
		Status:       string(health.StatusHealthy),
		Timestamp:    time.Now().Unix(),
		Dependencies: map[string]health.CheckResult{},
	}

	statusCode := http.StatusOK
	if s.health != nil {
		ready, results := s.health.Ready(c.Request.Context())
		resp.Dependencies = results
		if !ready {
			resp.Status = string(health.StatusUnhealthy)
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, resp)
}
