package classify

import (
	"testing"

	"github.com/lessonforge/pipeline/internal/model"
)

func TestStructureNumParts(t *testing.T) {
	tests := []struct {
		name       string
		complexity Complexity
		skill      model.SkillLevel
		role       model.Role
		want       int
	}{
		{"simple always one part", ComplexitySimple, model.SkillExpert, model.RoleStudent, 1},
		{"medium beginner", ComplexityMedium, model.SkillBeginner, model.RoleStudent, 3},
		{"medium intermediate", ComplexityMedium, model.SkillIntermediate, model.RoleStudent, 2},
		{"medium expert", ComplexityMedium, model.SkillExpert, model.RoleStudent, 1},
		{"complex beginner", ComplexityComplex, model.SkillBeginner, model.RoleStudent, 5},
		{"complex intermediate", ComplexityComplex, model.SkillIntermediate, model.RoleStudent, 3},
		{"complex expert", ComplexityComplex, model.SkillExpert, model.RoleStudent, 2},
		{"career changer gets one extra part", ComplexityComplex, model.SkillExpert, model.RoleCareerChanger, 3},
		{"career changer on simple still gets extra", ComplexitySimple, model.SkillExpert, model.RoleCareerChanger, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := numParts(tt.complexity, tt.skill, tt.role)
			if got != tt.want {
				t.Errorf("numParts(%v, %v, %v) = %d, want %d", tt.complexity, tt.skill, tt.role, got, tt.want)
			}
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		name       string
		style      model.LearningStyle
		commitment model.TimeCommitment
		want       int
	}{
		{"video base, mid commitment", model.LearningVideo, model.TimeCommitment3to5, 15},
		{"hands_on base, low commitment", model.LearningHandsOn, model.TimeCommitment1to3, 21},
		{"reading base, high commitment", model.LearningReading, model.TimeCommitment10Plus, 38},
		{"mixed base, heavy commitment", model.LearningMixed, model.TimeCommitment5to10, 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := durationMinutes(tt.style, tt.commitment)
			if got != tt.want {
				t.Errorf("durationMinutes(%v, %v) = %d, want %d", tt.style, tt.commitment, got, tt.want)
			}
		})
	}
}

func TestContentDepth(t *testing.T) {
	tests := []struct {
		skill model.SkillLevel
		want  model.ContentDepth
	}{
		{model.SkillBeginner, model.DepthFoundational},
		{model.SkillIntermediate, model.DepthComprehensive},
		{model.SkillExpert, model.DepthAdvanced},
	}

	for _, tt := range tests {
		t.Run(string(tt.skill), func(t *testing.T) {
			if got := contentDepth(tt.skill); got != tt.want {
				t.Errorf("contentDepth(%v) = %v, want %v", tt.skill, got, tt.want)
			}
		})
	}
}

func TestScheduleMatchesPartCount(t *testing.T) {
	entries := schedule(3)
	if len(entries) != 3 {
		t.Fatalf("schedule(3) returned %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e.PartIndex != i || e.WeekIndex != i {
			t.Errorf("entry %d: got part_index=%d week_index=%d, want %d", i, e.PartIndex, e.WeekIndex, i)
		}
		if len(e.ReviewOffsetDays) != 3 {
			t.Errorf("entry %d: expected 3 review offsets, got %d", i, len(e.ReviewOffsetDays))
		}
	}
}

func TestStructureIsDeterministic(t *testing.T) {
	a := Structure(ComplexityMedium, model.SkillIntermediate, model.RoleProfessional, model.LearningHandsOn, model.TimeCommitment3to5)
	b := Structure(ComplexityMedium, model.SkillIntermediate, model.RoleProfessional, model.LearningHandsOn, model.TimeCommitment3to5)

	if a.NumParts != b.NumParts || a.DurationMinutes != b.DurationMinutes || a.ContentDepth != b.ContentDepth {
		t.Fatalf("Structure is not deterministic for identical inputs: %+v vs %+v", a, b)
	}
	if len(a.Schedule) != a.NumParts {
		t.Errorf("schedule length %d does not match num_parts %d", len(a.Schedule), a.NumParts)
	}
}
