// Package queue adapts Redis Streams as the durable work queue between the
// roadmap service and the lesson-generation worker, following the teacher's
// internal/queue consumer-group pattern.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/lessonforge/pipeline/internal/model"
	"github.com/redis/go-redis/v9"
)

// Message is a queue envelope carrying one JobMessage plus redelivery metadata.
type Message struct {
	ID      string
	Job     model.JobMessage
	Attempt int
	Raw     redis.XMessage
}

// ParseMessage decodes a raw Redis stream entry into a Message. The job
// payload is carried as a single JSON field ("job") rather than flattened
// fields, since JobMessage nests UserProfile.
func ParseMessage(msg redis.XMessage) (Message, error) {
	raw, ok := msg.Values["job"]
	if !ok {
		return Message{}, fmt.Errorf("missing job field")
	}

	jobJSON, ok := raw.(string)
	if !ok {
		return Message{}, fmt.Errorf("job field is not a string")
	}

	var job model.JobMessage
	if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
		return Message{}, fmt.Errorf("unmarshaling job: %w", err)
	}

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}
	job.Attempt = attempt

	return Message{
		ID:      msg.ID,
		Job:     job,
		Attempt: attempt,
		Raw:     msg,
	}, nil
}

func messageValues(job model.JobMessage, attempt int) (map[string]any, error) {
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshaling job: %w", err)
	}

	return map[string]any{
		"job":             string(jobJSON),
		"attempt":         attempt,
		"module_id":       job.ModuleID,
		"idempotency_key": job.IdempotencyKey,
	}, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	str := fmt.Sprint(raw)
	var n int
	if _, err := fmt.Sscanf(str, "%d", &n); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
