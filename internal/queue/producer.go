package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lessonforge/pipeline/internal/logging"
	"github.com/lessonforge/pipeline/internal/model"
	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, job model.JobMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{client: client, stream: stream}
}

func (p *redisProducer) Enqueue(ctx context.Context, job model.JobMessage) error {
	ctx = logging.WithFields(ctx, logging.Fields{ModuleID: job.ModuleID, Component: "queue.producer"})

	values, err := messageValues(job, 1)
	if err != nil {
		return err
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("enqueue job (stream=%s): %w", p.stream, err)
	}

	slog.InfoContext(ctx, "enqueued lesson job", "module_id", job.ModuleID, "stream", p.stream)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
