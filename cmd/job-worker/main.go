// Package main 异步任务工作进程入口
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"edu-content-ai-api/internal/application/content"
	"edu-content-ai-api/internal/config"
	"edu-content-ai-api/internal/infrastructure/messaging"
	einoobs "edu-content-ai-api/internal/observability/eino"
	"edu-content-ai-api/internal/wire"
	"edu-content-ai-api/pkg/logger"
	"edu-content-ai-api/pkg/tracer"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// dlqAlertThreshold DLQ 积压告警阈值
const dlqAlertThreshold = 100

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting job-worker",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName:    cfg.App.Name + "-worker",
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SampleRate:     cfg.Observability.Tracing.SampleRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	einoobs.Init()

	app, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	app.Consumer.RegisterHandler(messaging.MsgTypePipelineJob, pipelineJobHandler(app.Pipeline))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return app.Consumer.Start(gctx)
	})
	g.Go(func() error {
		app.Consumer.MonitorDLQ(gctx, dlqAlertThreshold)
		return nil
	})

	log.Info("job worker started",
		"stream", string(messaging.StreamPipelineJobs),
		"group", string(messaging.ConsumerGroupPipelineWorker),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	app.Consumer.Stop()
	cancel()

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("worker exited with error", "error", err)
	}
	log.Info("worker exited")
}

// pipelineJobHandler 解析任务消息并驱动流水线执行
func pipelineJobHandler(pipeline *content.Pipeline) messaging.MessageHandler {
	return func(ctx context.Context, msg *messaging.Message) error {
		var job messaging.PipelineJobMessage
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			return fmt.Errorf("malformed pipeline job payload: %w", err)
		}

		var req content.ProcessRequest
		if err := json.Unmarshal(job.Request, &req); err != nil {
			return fmt.Errorf("malformed process request in job %s: %w", job.WorkflowID, err)
		}

		return pipeline.ExecuteJob(ctx, &req)
	}
}
