package server

import (
	"fmt"
	"net/http"

	"datacuration/internal/service"
	pkgerrors "datacuration/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, pkgerrors.NewSuccessResponse(data))
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, pkgerrors.NewSuccessResponse(data).WithMessage(message))
}

// Created 创建成功响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, pkgerrors.NewSuccessResponse(data).WithMessage(message))
}

// Ack 无数据的确认响应
func Ack(c *gin.Context, message string) {
	c.JSON(http.StatusOK, pkgerrors.NewSuccessResponse(nil).WithMessage(message))
}

// Error 错误响应，5xx 错误记录到上下文供日志和追踪中间件使用
func Error(c *gin.Context, err error) {
	status := pkgerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, pkgerrors.NewErrorResponse(err))
}

// BadRequest 请求绑定失败
func BadRequest(c *gin.Context, err error) {
	Error(c, pkgerrors.NewValidationFailed(err.Error()))
}

func batchMessage(operation string, resp *service.BatchResultResponse) string {
	return fmt.Sprintf("Batch %s finished: %d succeeded, %d failed", operation, resp.SuccessCount, resp.FailedCount)
}
