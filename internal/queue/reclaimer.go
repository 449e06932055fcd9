package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessonforge/pipeline/internal/logging"
	"github.com/redis/go-redis/v9"
)

type ReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// Reclaimer periodically reclaims messages left pending by a worker that
// died after XReadGroup but before Ack, using XAutoClaim.
type Reclaimer struct {
	client    *redis.Client
	cfg       ReclaimerConfig
	processor MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(client *redis.Client, cfg ReclaimerConfig, processor MessageProcessor) *Reclaimer {
	return &Reclaimer{
		client:    client,
		cfg:       cfg,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until Stop is called, reclaiming stale pending messages on cfg.Interval.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logging.WithFields(ctx, logging.Fields{Component: "queue.reclaimer"})
	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started", "interval", r.cfg.Interval, "min_idle", r.cfg.MinIdle)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if err := r.reclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			}
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

func (r *Reclaimer) reclaimOnce(ctx context.Context) error {
	start := "0-0"
	for {
		nextStart, msgs, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.cfg.Stream,
			Group:    r.cfg.Group,
			Consumer: r.cfg.Consumer,
			MinIdle:  r.cfg.MinIdle,
			Start:    start,
			Count:    r.cfg.BatchSize,
		}).Result()
		if err != nil {
			return fmt.Errorf("xautoclaim: %w", err)
		}

		for _, raw := range msgs {
			if err := r.reclaimMessage(ctx, raw); err != nil {
				slog.ErrorContext(ctx, "failed to reclaim message", "error", err, "message_id", raw.ID)
			}
		}

		if nextStart == "0-0" || len(msgs) == 0 {
			return nil
		}
		start = nextStart
	}
}

func (r *Reclaimer) reclaimMessage(ctx context.Context, raw redis.XMessage) error {
	parsed, err := ParseMessage(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse reclaimed message, acknowledging to prevent loop", "error", err)
		return r.Ack(ctx, Message{ID: raw.ID, Raw: raw})
	}

	ctx = logging.WithFields(ctx, logging.Fields{ModuleID: parsed.Job.ModuleID})
	slog.InfoContext(ctx, "reclaiming stale message")

	start := time.Now()
	if err := r.processor(ctx, parsed); err != nil {
		return fmt.Errorf("processing reclaimed message: %w", err)
	}

	slog.InfoContext(ctx, "reclaimed message processed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (r *Reclaimer) Ack(ctx context.Context, msg Message) error {
	if err := r.client.XAck(ctx, r.cfg.Stream, r.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", r.cfg.Stream, err)
	}
	return nil
}
