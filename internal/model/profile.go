package model

// Role is the learner's relationship to the material.
type Role string

const (
	RoleStudent       Role = "student"
	RoleProfessional  Role = "professional"
	RoleCareerChanger Role = "career_changer"
)

// SkillLevel is both the user's self-reported level and a module's difficulty.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillExpert       SkillLevel = "expert"
)

type LearningStyle string

const (
	LearningHandsOn LearningStyle = "hands_on"
	LearningVideo   LearningStyle = "video"
	LearningReading LearningStyle = "reading"
	LearningMixed   LearningStyle = "mixed"
)

// TimeCommitment is hours/week, expressed as the band string used on the wire.
type TimeCommitment string

const (
	TimeCommitment1to3   TimeCommitment = "1-3"
	TimeCommitment3to5   TimeCommitment = "3-5"
	TimeCommitment5to10  TimeCommitment = "5-10"
	TimeCommitment10Plus TimeCommitment = "10+"
)

// UserProfile is an immutable per-job snapshot carried in the JobMessage envelope.
type UserProfile struct {
	Role           Role           `json:"role"`
	CareerStage    string         `json:"career_stage"`
	SkillLevel     SkillLevel     `json:"skill_level"`
	LearningStyle  LearningStyle  `json:"learning_style"`
	TimeCommitment TimeCommitment `json:"time_commitment"`
	Industry       string         `json:"industry"`
	CurrentRole    string         `json:"current_role,omitempty"`
	Bio            string         `json:"bio,omitempty"`
	Interests      []string       `json:"interests,omitempty"`
}
