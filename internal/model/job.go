package model

import "time"

// GenerationStatus is the module's position in the generation state machine (K).
// Transitions are only ever not_started -> queued -> in_progress -> {completed|failed}.
type GenerationStatus string

const (
	StatusNotStarted GenerationStatus = "not_started"
	StatusQueued     GenerationStatus = "queued"
	StatusInProgress GenerationStatus = "in_progress"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// JobMessage is the inbound work order delivered by the queue adapter.
// Never mutated after it is produced externally.
type JobMessage struct {
	ModuleID       string      `json:"module_id"`
	RoadmapID      string      `json:"roadmap_id"`
	Title          string      `json:"title"`
	Difficulty     SkillLevel  `json:"difficulty"`
	UserProfile    UserProfile `json:"user_profile"`
	IdempotencyKey string      `json:"idempotency_key"`
	EnqueuedAt     time.Time   `json:"timestamp"`

	// Attempt is queue-layer redelivery count, not part of the wire envelope.
	Attempt int `json:"-"`
}

// Module is the persistent roadmap unit this job generates lessons for.
type Module struct {
	ID                     string
	RoadmapID              string
	Title                  string
	Description            string
	Difficulty             SkillLevel
	NumLessonsTarget       int
	GenerationStatus       GenerationStatus
	IdempotencyKey         string
	GenerationStartedAt    *time.Time
	GenerationCompletedAt  *time.Time
	GenerationError        string
}

// NumLessonsTargetFor returns the default lesson count for a difficulty, per §4.9.
func NumLessonsTargetFor(difficulty SkillLevel) int {
	switch difficulty {
	case SkillBeginner:
		return 3
	case SkillIntermediate:
		return 4
	case SkillExpert:
		return 5
	default:
		return 3
	}
}
