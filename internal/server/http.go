package server

import (
	"net/http"
	"time"

	"datacuration/internal/service"
	"datacuration/pkg/health"
	"datacuration/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
	Mode    string `json:"mode"` // debug, release, test
}

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine      *gin.Engine
	service     *service.DataSourceService
	health      *health.HealthChecker
	idempotency gin.HandlerFunc
	logger      log.Logger
	timeout     time.Duration
}

// NewHTTPServer 创建 kratos HTTP 服务器，gin 路由挂载在根路径
func NewHTTPServer(
	c *HTTPConfig,
	svc *service.DataSourceService,
	checker *health.HealthChecker,
	idempotency middleware.IdempotencyConfig,
	logger log.Logger,
) *khttp.Server {
	s := newHTTPServer(c, svc, checker, idempotency, logger)

	var opts []khttp.ServerOption
	if c.Network != "" {
		opts = append(opts, khttp.Network(c.Network))
	}
	addr := c.Addr
	if addr == "" {
		addr = ":8000"
	}
	opts = append(opts, khttp.Address(addr), khttp.Timeout(s.timeout))

	srv := khttp.NewServer(opts...)
	srv.HandlePrefix("/", s.engine)

	log.NewHelper(logger).Infof("HTTP server created on %s", addr)
	return srv
}

func newHTTPServer(
	c *HTTPConfig,
	svc *service.DataSourceService,
	checker *health.HealthChecker,
	idempotency middleware.IdempotencyConfig,
	logger log.Logger,
) *HTTPServer {
	if c.Mode != "" {
		gin.SetMode(c.Mode)
	}

	s := &HTTPServer{
		engine:      gin.New(),
		service:     svc,
		health:      checker,
		idempotency: middleware.Idempotency(idempotency),
		logger:      logger,
		timeout:     parseDuration(c.Timeout, 30*time.Second),
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Handler 返回 gin 引擎
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// registerMiddleware 注册中间件
func (s *HTTPServer) registerMiddleware() {
	// 恢复中间件（必须最先）
	s.engine.Use(RecoveryMiddleware(s.logger))
	s.engine.Use(CORSMiddleware())
	s.engine.Use(TracingMiddleware())
	s.engine.Use(MetricsMiddleware())
	s.engine.Use(LoggingMiddleware(s.logger))
	s.engine.Use(TimeoutMiddleware(s.timeout))
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	api := s.engine.Group("/api/v1")

	dataSources := api.Group("/data-sources")
	{
		// 创建和批量操作支持 Idempotency-Key
		dataSources.POST("", s.idempotency, s.createDataSource)
		dataSources.POST("/", s.idempotency, s.createDataSource)
		dataSources.GET("", s.listDataSources)
		dataSources.GET("/", s.listDataSources)
		dataSources.GET("/:id", s.getDataSource)
		dataSources.PUT("/:id/info", s.updateInfo)
		dataSources.PUT("/:id/content", s.updateContent)
		dataSources.DELETE("/:id", s.deleteDataSource)

		// 原始数据
		dataSources.POST("/:id/raw-data", s.addRawData)
		dataSources.DELETE("/:id/raw-data", s.removeRawData)

		// 状态转换
		dataSources.POST("/:id/confirm", s.confirm)
		dataSources.POST("/:id/revert", s.revert)

		// 批量操作
		dataSources.POST("/batch/archive", s.idempotency, s.batchArchive)
		dataSources.POST("/batch/delete", s.idempotency, s.batchDelete)
	}

	s.engine.GET("/health", s.healthHandler)
	s.engine.GET("/ready", s.readinessHandler)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// createDataSource 创建数据源
func (s *HTTPServer) createDataSource(c *gin.Context) {
	var req service.CreateDataSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	resp, err := s.service.CreateDataSource(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, "Data source created", resp)
}

// getDataSource 获取数据源
func (s *HTTPServer) getDataSource(c *gin.Context) {
	resp, err := s.service.GetDataSource(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, resp)
}

// listDataSources 列出数据源
func (s *HTTPServer) listDataSources(c *gin.Context) {
	var req service.ListDataSourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, err)
		return
	}

	resp, err := s.service.ListDataSources(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, resp)
}

// updateInfo 更新基础信息
func (s *HTTPServer) updateInfo(c *gin.Context) {
	var req service.UpdateInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := s.service.UpdateInfo(c.Request.Context(), c.Param("id"), &req); err != nil {
		Error(c, err)
		return
	}

	Ack(c, "Data source info updated")
}

// updateContent 更新编辑内容
func (s *HTTPServer) updateContent(c *gin.Context) {
	var req service.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := s.service.UpdateContent(c.Request.Context(), c.Param("id"), &req); err != nil {
		Error(c, err)
		return
	}

	Ack(c, "Data source content updated")
}

// deleteDataSource 删除数据源
func (s *HTTPServer) deleteDataSource(c *gin.Context) {
	if err := s.service.DeleteDataSource(c.Request.Context(), c.Param("id"), c.Query("deleted_by")); err != nil {
		Error(c, err)
		return
	}

	Ack(c, "Data source deleted")
}

// addRawData 添加原始数据
func (s *HTTPServer) addRawData(c *gin.Context) {
	var req service.AddRawDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := s.service.AddRawData(c.Request.Context(), c.Param("id"), &req); err != nil {
		Error(c, err)
		return
	}

	Ack(c, "Raw data added")
}

// removeRawData 移除原始数据
func (s *HTTPServer) removeRawData(c *gin.Context) {
	var req service.RemoveRawDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := s.service.RemoveRawData(c.Request.Context(), c.Param("id"), &req); err != nil {
		Error(c, err)
		return
	}

	Ack(c, "Raw data removed")
}

// confirm 确定数据源
func (s *HTTPServer) confirm(c *gin.Context) {
	var req service.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := s.service.Confirm(c.Request.Context(), c.Param("id"), &req); err != nil {
		Error(c, err)
		return
	}

	Ack(c, "Data source confirmed")
}

// revert 恢复为草稿
func (s *HTTPServer) revert(c *gin.Context) {
	var req service.RevertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := s.service.Revert(c.Request.Context(), c.Param("id"), &req); err != nil {
		Error(c, err)
		return
	}

	Ack(c, "Data source reverted to draft")
}

// batchArchive 批量留存
func (s *HTTPServer) batchArchive(c *gin.Context) {
	var req service.BatchOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	resp, err := s.service.BatchArchive(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	SuccessWithMessage(c, batchMessage("archive", resp), resp)
}

// batchDelete 批量删除
func (s *HTTPServer) batchDelete(c *gin.Context) {
	var req service.BatchOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	resp, err := s.service.BatchDelete(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	SuccessWithMessage(c, batchMessage("delete", resp), resp)
}
