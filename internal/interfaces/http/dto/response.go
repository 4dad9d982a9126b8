// Package dto 定义 HTTP 层请求与响应结构
package dto

import (
	"github.com/gin-gonic/gin"
)

// Response 统一成功响应信封
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorDetail 业务错误详情，error_code 取领域错误码
type ErrorDetail struct {
	ErrorCode   string   `json:"error_code,omitempty"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ErrorResponse 错误响应信封
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// traceID 取当前请求的追踪标识，追踪未启用时为空串
func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func respond[T any](c *gin.Context, httpCode int, message string, data T) {
	c.JSON(httpCode, Response[T]{
		Code:    httpCode,
		Message: message,
		Data:    data,
		TraceID: traceID(c),
	})
}

// Success 同步处理完成 (200)
func Success[T any](c *gin.Context, data T) {
	respond(c, 200, "success", data)
}

// Created 资源已创建 (201)
func Created[T any](c *gin.Context, data T) {
	respond(c, 201, "created", data)
}

// Accepted 异步任务已受理 (202)，载荷稍后经执行记录或回调取回
func Accepted[T any](c *gin.Context, data T) {
	respond(c, 202, "accepted", data)
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		TraceID: traceID(c),
	})
}

// ErrorWithDetail 返回带领域错误详情的错误响应
func ErrorWithDetail(c *gin.Context, httpCode int, message string, detail *ErrorDetail) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		Error:   detail,
		TraceID: traceID(c),
	})
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, 404, message)
}

// Conflict 返回 409 错误
func Conflict(c *gin.Context, message string) {
	Error(c, 409, message)
}

// InternalError 返回 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, 500, message)
}

// ServiceUnavailable 返回 503 错误
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, 503, message)
}
