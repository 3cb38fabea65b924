package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Success bool   `json:"success"`          // 始终为false
	Detail  string `json:"detail"`           // 错误描述（用户可读）
	Reason  string `json:"reason,omitempty"` // 错误原因码
}

// SuccessResponse 统一成功响应格式
type SuccessResponse struct {
	Success bool        `json:"success"`           // 始终为true
	Message string      `json:"message,omitempty"` // 可选消息
	Data    interface{} `json:"data,omitempty"`    // 响应数据
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Success: true,
		Data:    data,
	}
}

// WithMessage 添加消息
func (s *SuccessResponse) WithMessage(message string) *SuccessResponse {
	s.Message = message
	return s
}

// NewErrorResponse 根据错误创建错误响应，未知错误不暴露内部细节
func NewErrorResponse(err error) *ErrorResponse {
	se := errors.FromError(err)
	if se == nil || se.Code == 0 || se.Code >= 500 || se.Reason == errors.UnknownReason {
		return &ErrorResponse{
			Success: false,
			Detail:  ErrInternalServerError.Message,
			Reason:  ReasonInternalServerError,
		}
	}
	return &ErrorResponse{
		Success: false,
		Detail:  se.Message,
		Reason:  se.Reason,
	}
}
