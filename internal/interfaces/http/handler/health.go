// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"edu-content-ai-api/internal/infrastructure/persistence/postgres"
	"edu-content-ai-api/internal/infrastructure/persistence/redis"
)

// ProviderProbe AI 提供商可用性探测
type ProviderProbe interface {
	HealthCheck(ctx context.Context) bool
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version  string
	pg       *postgres.Client
	redis    *redis.Client
	provider ProviderProbe
}

// NewHealthHandler 创建健康检查处理器，未启用的依赖传 nil
func NewHealthHandler(version string, pg *postgres.Client, redisClient *redis.Client, provider ProviderProbe) *HealthHandler {
	return &HealthHandler{
		version:  version,
		pg:       pg,
		redis:    redisClient,
		provider: provider,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查存储、缓存与 AI 提供商是否可用
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"postgres": {Status: "disabled"},
		"redis":    {Status: "disabled"},
		"provider": {Status: "disabled"},
	}
	ready := true

	if h.pg != nil {
		start := time.Now()
		if err := h.pg.HealthCheck(ctx); err != nil {
			checks["postgres"] = &readinessCheck{Status: "down", Error: err.Error()}
			ready = false
		} else {
			checks["postgres"] = &readinessCheck{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
		}
	}

	if h.redis != nil {
		start := time.Now()
		if err := h.redis.HealthCheck(ctx); err != nil {
			checks["redis"] = &readinessCheck{Status: "down", Error: err.Error()}
			ready = false
		} else {
			checks["redis"] = &readinessCheck{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
		}
	}

	if h.provider != nil {
		start := time.Now()
		if h.provider.HealthCheck(ctx) {
			checks["provider"] = &readinessCheck{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
		} else {
			// 提供商不可用时服务仍可受理请求（兜底合成），不拉低就绪状态
			checks["provider"] = &readinessCheck{Status: "down"}
		}
	}

	status := http.StatusOK
	resp := readinessResponse{Status: "ready", Checks: checks}
	if !ready {
		status = http.StatusServiceUnavailable
		resp.Status = "not_ready"
	}
	c.JSON(status, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "alive"})
}
