// Package cache implements the lesson content fingerprint (H) and the
// single-flight guarantee that at most one build per fingerprint runs
// concurrently within a process.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lessonforge/pipeline/internal/model"
)

// ContentHash computes the fingerprint of §4.7:
// H(normalize(title) ‖ style ‖ skill_level ‖ role ‖ industry ‖ schema_version).
func ContentHash(req model.LessonRequest, schemaVersion int) string {
	parts := strings.Join([]string{
		normalize(req.StepTitle),
		string(req.LearningStyle),
		string(req.Difficulty),
		string(req.UserProfile.Role),
		normalize(req.UserProfile.Industry),
		fmt.Sprintf("v%d", schemaVersion),
	}, "|")

	sum := sha256.Sum256([]byte(parts))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
