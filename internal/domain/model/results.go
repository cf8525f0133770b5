package model

import "time"

// Match type labels attached to skill matches.
const (
	MatchExact    = "exact"
	MatchFuzzy    = "fuzzy"
	MatchSemantic = "semantic"
	MatchCertRule = "certification_mapping"
	MatchCode     = "course_code_pattern"
	MatchKeyword  = "course_name_keyword"
	MatchSyllabus = "syllabus_keyword"
)

// SkillMatch is one confidence-scored skill found in an input.
type SkillMatch struct {
	SkillID    string
	SkillName  string
	Confidence float64 // 0-1, after source multiplier
	Source     SourceKind
	MatchType  string
	Snippet    string // text window around the match
}

// Evidence is a single observation that a student demonstrates a skill.
// Transient: produced and consumed within one aggregation pass, never
// persisted on its own.
type Evidence struct {
	Source        SourceKind
	SourceID      string
	SkillID       string
	SkillName     string
	Confidence    float64   // 0-1
	Date          time.Time // zero when the source carries no usable date
	Justification string
}

// SkillScore is the aggregated, persisted score for one (student, skill)
// pair. Overwritten wholesale on recomputation.
type SkillScore struct {
	StudentID     string
	SkillID       string
	SkillName     string
	Score         float64 // 0-100
	EvidenceCount int
	LastComputed  time.Time
}

// SkillBreakdown is one row of a role match's per-skill detail.
type SkillBreakdown struct {
	SkillID       string
	SkillName     string
	StudentScore  float64
	RequiredScore float64
	Gap           float64 // max(0, required - student)
	Mandatory     bool
	Met           bool // student score >= required score
}

// RoleMatch is the compatibility result for one (student, role) pair.
// Persisted as a cache, replaced wholesale per student.
type RoleMatch struct {
	StudentID        string
	RoleID           string
	RoleTitle        string
	Compatibility    float64 // 0-100, two decimals
	MatchedSkills    int
	TotalRequired    int
	MissingMandatory []string
	Breakdown        []SkillBreakdown
	ComputedAt       time.Time
}

// Disqualified reports whether any mandatory requirement is unmet.
func (m *RoleMatch) Disqualified() bool {
	return len(m.MissingMandatory) > 0
}

// GapReport describes what stands between a student and a role.
type GapReport struct {
	RoleID          string
	RoleTitle       string
	Readiness       float64 // same scale as compatibility
	Ready           bool
	MandatoryGaps   []SkillBreakdown
	OptionalGaps    []SkillBreakdown
	TotalGaps       int
	Recommendations []string
}

// BatchResult summarizes a multi-student recompute. One student's failure
// never aborts the others; errors are collected per student.
type BatchResult struct {
	Recomputed int
	Errors     map[string]error
}
