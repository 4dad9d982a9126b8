// Package wire 组装应用依赖
package wire

import (
	"context"
	"fmt"
	"os"

	"edu-content-ai-api/internal/application/content"
	"edu-content-ai-api/internal/application/course"
	"edu-content-ai-api/internal/config"
	"edu-content-ai-api/internal/domain/repository"
	"edu-content-ai-api/internal/infrastructure/callback"
	"edu-content-ai-api/internal/infrastructure/llm"
	"edu-content-ai-api/internal/infrastructure/messaging"
	"edu-content-ai-api/internal/infrastructure/persistence/memory"
	"edu-content-ai-api/internal/infrastructure/persistence/postgres"
	"edu-content-ai-api/internal/infrastructure/persistence/redis"
	"edu-content-ai-api/internal/interfaces/http/handler"
	"edu-content-ai-api/internal/interfaces/http/middleware"
	"edu-content-ai-api/internal/interfaces/http/router"
	"edu-content-ai-api/internal/workflow/chain"
	"edu-content-ai-api/internal/workflow/prompt"
	"edu-content-ai-api/pkg/logger"

	"github.com/google/uuid"
)

// Core 服务核心依赖容器
type Core struct {
	Pipeline   *content.Pipeline
	Executions *content.ExecutionService
	Engine     *course.Engine
	Producer   *messaging.Producer

	PgClient    *postgres.Client
	RedisClient *redis.Client
	Cache       *redis.Cache
	RateLimiter *redis.RateLimiter
}

// App API 服务依赖容器
type App struct {
	Core
	Router *router.Router
}

// WorkerApp 任务工作进程依赖容器
type WorkerApp struct {
	Core
	Consumer *messaging.Consumer
}

// InitializeCore 组装服务核心：存储、缓存、LLM 调用链与流水线
func InitializeCore(ctx context.Context, cfg *config.Config) (*Core, func(), error) {
	cleanups := make([]func(), 0, 2)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	core := &Core{}

	// 存储后端按配置选择，默认内存实现
	var (
		execRepo    repository.ExecutionRepository
		chapterRepo repository.ChapterRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := pgClient.Close(); err != nil {
				logger.Warn(ctx, "failed to close postgres client", "error", err.Error())
			}
		})
		if err := pgClient.AutoMigrate(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		core.PgClient = pgClient
		execRepo = postgres.NewExecutionRepository(pgClient)
		chapterRepo = postgres.NewChapterRepository(pgClient)
	default:
		execRepo = memory.NewExecutionStore()
		chapterRepo = memory.NewChapterStore()
	}

	// Redis 可选；未配置时禁用异步队列、缓存与限流
	if cfg.Cache.Redis.Host != "" {
		redisClient, err := redis.NewClient(&cfg.Cache.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn(ctx, "failed to close redis client", "error", err.Error())
			}
		})
		core.RedisClient = redisClient
		core.Cache = redis.NewCache(redisClient)
		core.RateLimiter = redis.NewRateLimiter(redisClient)
		core.Producer = messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
	}

	prompts := prompt.NewRegistry()
	factory := llm.NewEinoFactory(cfg)
	invoker := llm.NewEinoInvoker(cfg, factory)
	reconciler := chain.NewReconciler(invoker, prompts)

	core.Engine = course.NewEngine(reconciler, prompts, chapterRepo)

	// 接口字段不能直接塞 nil 指针，Redis 缺席时保持接口为 nil
	var queue content.JobQueue
	if core.Producer != nil {
		queue = core.Producer
	}
	notifier := callback.NewDispatcher(cfg.Pipeline.CallbackTimeout)

	validator := content.NewValidator(cfg.Pipeline.MaxInputChars)
	core.Pipeline = content.NewPipeline(validator, reconciler, prompts, execRepo, core.Engine, queue, notifier)
	core.Executions = content.NewExecutionService(execRepo)

	return core, cleanup, nil
}

// InitializeApp 组装 API 服务
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	core, cleanup, err := InitializeCore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(cfg.App.Version, core.PgClient, core.RedisClient, core.Pipeline),
		Process:   handler.NewProcessHandler(core.Pipeline),
		Chapter:   handler.NewChapterHandler(core.Engine, core.Cache),
		Execution: handler.NewExecutionHandler(core.Executions),
	}

	var limiter middleware.RateLimiter
	if core.RateLimiter != nil {
		limiter = core.RateLimiter
	}

	app := &App{
		Core:   *core,
		Router: router.New(cfg, handlers, limiter),
	}
	return app, cleanup, nil
}

// InitializeWorker 组装异步任务工作进程，Redis 为必选依赖
func InitializeWorker(ctx context.Context, cfg *config.Config) (*WorkerApp, func(), error) {
	core, cleanup, err := InitializeCore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if core.RedisClient == nil {
		cleanup()
		return nil, nil, fmt.Errorf("job worker requires redis: cache.redis.host is empty")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}
	streamCfg := cfg.Messaging.RedisStream

	consumer := messaging.NewConsumer(core.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamPipelineJobs,
		Group:         messaging.ConsumerGroupPipelineWorker,
		ConsumerName:  fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    streamCfg.RetryBackoff.Initial,
			Max:        streamCfg.RetryBackoff.Max,
			Multiplier: streamCfg.RetryBackoff.Multiplier,
		},
	})

	app := &WorkerApp{
		Core:     *core,
		Consumer: consumer,
	}
	return app, cleanup, nil
}
