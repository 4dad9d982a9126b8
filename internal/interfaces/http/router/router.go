// Package router 提供 HTTP 路由配置
package router

import (
	"edu-content-ai-api/internal/config"
	"edu-content-ai-api/internal/interfaces/http/handler"
	"edu-content-ai-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由所需的处理器集合
type Handlers struct {
	Health    *handler.HealthHandler
	Process   *handler.ProcessHandler
	Chapter   *handler.ChapterHandler
	Execution *handler.ExecutionHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  middleware.RateLimiter
}

// New 创建新的路由器
func New(cfg *config.Config, handlers Handlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.Auth(middleware.AuthConfig{
		Secret:    r.cfg.Security.JWT.Secret,
		Issuer:    r.cfg.Security.JWT.Issuer,
		Enabled:   r.cfg.Security.JWT.Enabled,
		SkipPaths: []string{"/health", "/ready", "/live", "/metrics"},
	}))

	r.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.cfg.Security.RateLimit.Enabled,
		RequestsPerMinute: r.cfg.Security.RateLimit.RequestsPerMinute,
	}, r.limiter))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	{
		// 内容处理
		content := v1.Group("/content")
		{
			content.POST("/process", r.handlers.Process.Process)
		}

		// 执行记录
		executions := v1.Group("/executions")
		{
			executions.GET("", r.handlers.Execution.ListExecutions)
			executions.GET("/stats", r.handlers.Execution.GetStats)
			executions.GET("/:wid", r.handlers.Execution.GetExecution)
		}

		// 课程章节
		courses := v1.Group("/courses")
		{
			courses.GET("/:cid/chapters", r.handlers.Chapter.ListChapters)
			courses.POST("/:cid/chapters", r.handlers.Chapter.CreateChapter)
		}

		chapters := v1.Group("/chapters")
		{
			chapters.GET("/:chid", r.handlers.Chapter.GetChapter)
			chapters.POST("/:chid/continue", r.handlers.Chapter.ContinueChapter)
		}
	}
}
