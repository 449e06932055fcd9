package classify

import (
	"github.com/lessonforge/pipeline/internal/model"
)

// Complexity is an input to the structure calculator, derived from topic
// classification confidence rather than persisted.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Structure computes the deterministic metadata of §4.4: num_parts,
// duration_minutes, content_depth, and a spaced-repetition schedule. It never
// causes a lesson to split into multiple persisted records — these values
// only inform the document and the prompt.
func Structure(
	complexity Complexity,
	skill model.SkillLevel,
	role model.Role,
	style model.LearningStyle,
	commitment model.TimeCommitment,
) model.Structure {
	numParts := numParts(complexity, skill, role)

	return model.Structure{
		NumParts:        numParts,
		DurationMinutes: durationMinutes(style, commitment),
		ContentDepth:    contentDepth(skill),
		Schedule:        schedule(numParts),
	}
}

func numParts(complexity Complexity, skill model.SkillLevel, role model.Role) int {
	n := 1
	switch complexity {
	case ComplexitySimple:
		n = 1
	case ComplexityMedium:
		switch skill {
		case model.SkillBeginner:
			n = 3
		case model.SkillIntermediate:
			n = 2
		case model.SkillExpert:
			n = 1
		}
	case ComplexityComplex:
		switch skill {
		case model.SkillBeginner:
			n = 5
		case model.SkillIntermediate:
			n = 3
		case model.SkillExpert:
			n = 2
		}
	}

	if role == model.RoleCareerChanger {
		n++
	}

	return n
}

func durationMinutes(style model.LearningStyle, commitment model.TimeCommitment) int {
	base := 20.0
	switch style {
	case model.LearningVideo:
		base = 15
	case model.LearningMixed:
		base = 20
	case model.LearningReading:
		base = 25
	case model.LearningHandsOn:
		base = 30
	}

	factor := 1.0
	switch commitment {
	case model.TimeCommitment1to3:
		factor = 0.7
	case model.TimeCommitment3to5:
		factor = 1.0
	case model.TimeCommitment5to10:
		factor = 1.3
	case model.TimeCommitment10Plus:
		factor = 1.5
	}

	return int(base*factor + 0.5)
}

func contentDepth(skill model.SkillLevel) model.ContentDepth {
	switch skill {
	case model.SkillBeginner:
		return model.DepthFoundational
	case model.SkillIntermediate:
		return model.DepthComprehensive
	case model.SkillExpert:
		return model.DepthAdvanced
	default:
		return model.DepthFoundational
	}
}

func schedule(numParts int) []model.ScheduleEntry {
	entries := make([]model.ScheduleEntry, numParts)
	for i := range entries {
		entries[i] = model.ScheduleEntry{
			PartIndex:        i,
			WeekIndex:        i,
			ReviewOffsetDays: []int{2, 7, 30},
		}
	}
	return entries
}
