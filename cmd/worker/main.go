package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"github.com/lessonforge/pipeline/internal/assembler"
	"github.com/lessonforge/pipeline/internal/cache"
	"github.com/lessonforge/pipeline/internal/classify"
	"github.com/lessonforge/pipeline/internal/config"
	"github.com/lessonforge/pipeline/internal/id"
	"github.com/lessonforge/pipeline/internal/llm"
	"github.com/lessonforge/pipeline/internal/logging"
	"github.com/lessonforge/pipeline/internal/modulejob"
	"github.com/lessonforge/pipeline/internal/otelsetup"
	"github.com/lessonforge/pipeline/internal/queue"
	"github.com/lessonforge/pipeline/internal/retriever"
	"github.com/lessonforge/pipeline/internal/store"
	"github.com/lessonforge/pipeline/core/db"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logging.Setup(cfg)

	slog.InfoContext(ctx, "lessonforge worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.Group,
		"consumer_name", cfg.Queue.Consumer)

	otelShutdown, err := otelsetup.Setup(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize otel", "error", err)
		os.Exit(1)
	}

	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, db.Config{DSN: cfg.DB.DSN, MaxConns: cfg.DB.MaxConns, MinConns: cfg.DB.MinConns})
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL("redis://" + cfg.Queue.Addr)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis address", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.Stream)

	tiers, err := llm.BuildTiers(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build provider tiers", "error", err)
		os.Exit(1)
	}
	for _, t := range tiers {
		slog.InfoContext(ctx, "provider tier configured", "tier", t.Name, "model", t.Client.Model())
	}
	orchestrator := llm.NewOrchestrator(tiers...)

	classifier, err := classify.New(orchestrator)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build classifier", "error", err)
		os.Exit(1)
	}

	engine := &retriever.Engine{
		Deadline: cfg.ResearchDeadline,
		OfficialDocs: &retriever.OfficialDocsAdapter{
			Timeout: cfg.AdapterTimeout,
		},
		QA: &retriever.QAAdapter{
			Timeout: cfg.AdapterTimeout,
		},
		Code: &retriever.CodeAdapter{
			Timeout: cfg.AdapterTimeout,
		},
		Articles: &retriever.ArticlesAdapter{
			Timeout:      cfg.AdapterTimeout,
			PrimaryDays:  cfg.DevToPrimaryWindowDays,
			FallbackDays: cfg.DevToFallbackWindowDays,
		},
		Video: &retriever.VideoAdapter{
			Timeout: cfg.AdapterTimeout,
		},
	}

	stores := store.NewTxRunner(database)

	lessonAssembler := &assembler.Assembler{
		Orchestrator:   orchestrator,
		Classifier:     classifier,
		ResearchEngine: engine,
		Builder:        &cache.Builder{},
		Stores:         stores,
		SchemaVersion:  cfg.SchemaVersion,
	}

	jobWorker := &modulejob.Worker{
		Assembler:      lessonAssembler,
		Stores:         stores,
		EnableResearch: true,
	}

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Queue.Stream,
		Group:        cfg.Queue.Group,
		Consumer:     cfg.Queue.Consumer,
		DLQStream:    cfg.Queue.DLQStream,
		BatchSize:    cfg.Queue.BatchSize,
		Block:        cfg.Queue.Block,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		RequeueDelay: cfg.Queue.RequeueDelay,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	processMessage := newMessageProcessor(consumer, jobWorker, cfg.Queue.MaxAttempts)

	reclaimer := queue.NewReclaimer(redisClient, queue.ReclaimerConfig{
		Stream:    cfg.Queue.Stream,
		Group:     cfg.Queue.Group,
		Consumer:  cfg.Queue.Consumer + "-reclaimer",
		MinIdle:   cfg.Queue.ClaimIdle,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, processMessage)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < max(cfg.WorkerConcurrency, 1); i++ {
		wg.Add(1)
		go runLoop(ctx, &wg, consumer, processMessage, cfg.Queue.MaxAttempts)
	}

	go reclaimer.Run(ctx)

	slog.InfoContext(ctx, "worker running", "concurrency", cfg.WorkerConcurrency)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown")

	// Stop accepting new work; in-flight modules either finish within the
	// grace period or stay in_progress for a later worker's reclaimer to pick up.
	cancel()

	shutdownComplete := make(chan struct{})
	go func() {
		reclaimer.Stop()
		wg.Wait()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		slog.InfoContext(ctx, "graceful shutdown completed")
	case <-time.After(cfg.ShutdownGrace):
		slog.WarnContext(ctx, "shutdown grace period exceeded, forcing exit", "grace", cfg.ShutdownGrace)
	}

	slog.InfoContext(ctx, "closing database connection")
	database.Close()

	slog.InfoContext(ctx, "closing redis connection")
	if err := redisClient.Close(); err != nil {
		slog.ErrorContext(ctx, "redis close error", "error", err)
	}

	if err := otelShutdown(context.Background()); err != nil {
		slog.ErrorContext(ctx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(ctx, "shutdown complete")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func runLoop(ctx context.Context, wg *sync.WaitGroup, consumer *queue.RedisConsumer, process queue.MessageProcessor, maxAttempts int) {
	defer wg.Done()

	ctx = logging.WithFields(ctx, logging.Fields{Component: "worker.loop"})
	slog.InfoContext(ctx, "worker loop started")

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "worker loop stopping")
			return
		default:
			messages, err := consumer.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.ErrorContext(ctx, "failed to read from stream", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for _, msg := range messages {
				if ctx.Err() != nil {
					return
				}

				msgCtx := logging.WithFields(ctx, logging.Fields{ModuleID: msg.Job.ModuleID})
				if err := processMessageSafe(msgCtx, msg, process); err != nil {
					slog.ErrorContext(msgCtx, "message processing failed", "error", err)
					handleFailure(msgCtx, consumer, msg, err, maxAttempts)
				}
			}
		}
	}
}

func processMessageSafe(ctx context.Context, msg queue.Message, process queue.MessageProcessor) (err error) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "panic recovered", "panic", rec, "duration_ms", time.Since(start).Milliseconds())
			err = fmt.Errorf("panic: %v", rec)
			return
		}
		if err == nil {
			slog.InfoContext(ctx, "message processed", "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	return process(ctx, msg)
}

// newMessageProcessor wraps the module-job worker with ack handling (L): the
// worker's Process never returns an error for a state machine outcome it
// already recorded, only for infra-level failures. A returned error leaves the
// message unacked; in runLoop, handleFailure then requeues or dead-letters it.
func newMessageProcessor(consumer *queue.RedisConsumer, worker *modulejob.Worker, maxAttempts int) queue.MessageProcessor {
	return func(ctx context.Context, msg queue.Message) error {
		slog.InfoContext(ctx, "processing job", "module_id", msg.Job.ModuleID, "attempt", msg.Attempt)

		if err := worker.Process(ctx, msg); err != nil {
			return err
		}

		return consumer.Ack(ctx, msg)
	}
}

func handleFailure(ctx context.Context, consumer *queue.RedisConsumer, msg queue.Message, err error, maxAttempts int) {
	if msg.Attempt >= maxAttempts {
		if dlqErr := consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	if requeueErr := consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue", "error", requeueErr)
	}
}

const banner = `
 _                             _____
| |    ___  ___ ___  ___  _ __|  ___|__  _ __ __ _  ___
| |   / _ \/ __/ __|/ _ \| '_ \ |_ / _ \| '__/ _` + "`" + ` |/ _ \
| |__|  __/\__ \__ \ (_) | | | |  _| (_) | | | (_| |  __/
|_____\___||___/___/\___/|_| |_|_|  \___/|_|  \__, |\___|
                                               |___/
`
