// Package model contains domain records passed between layers.
package model

import "time"

// SourceKind identifies the kind of record a piece of evidence came from.
type SourceKind string

// Known evidence source kinds.
const (
	SourceProject       SourceKind = "project"
	SourceCertification SourceKind = "certification"
	SourceCourse        SourceKind = "course"
	SourceInternship    SourceKind = "internship"
	SourceAssessment    SourceKind = "assessment"
	SourceResume        SourceKind = "resume"
)

// Skill is an entry in the skill taxonomy. Reference data owned by an
// external catalog process; read-only to the engine.
type Skill struct {
	ID          string
	Name        string // unique within the catalog
	Category    string
	Description string
	Branches    []string
	// BenchmarkScore is the 0-100 bar for "fully proficient".
	BenchmarkScore float64
}

// Student is the subject of scoring and matching.
type Student struct {
	ID         string
	RollNumber string
	FullName   string
	Email      string
	Branch     string
	BatchYear  int
}

// Project is a student project record. Skills are extracted from the
// description text.
type Project struct {
	ID          string
	StudentID   string
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Certification is a certification earned by a student.
type Certification struct {
	ID        string
	StudentID string
	Name      string
	Provider  string
	IssueDate *time.Time
}

// Course is an entry in the course catalog.
type Course struct {
	ID       string
	Code     string // e.g. "CS101"
	Name     string
	Syllabus string
}

// CourseRecord joins a student's enrollment with its course.
type CourseRecord struct {
	Course      Course
	StudentID   string
	Grade       string
	CompletedAt *time.Time
}

// Internship is a student internship record. Skills are extracted from the
// description text.
type Internship struct {
	ID          string
	StudentID   string
	Company     string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Assessment is a direct, authoritative measurement of one skill.
type Assessment struct {
	ID          string
	StudentID   string
	SkillID     string
	Kind        string // e.g. "quiz", "practical"
	Score       float64
	CompletedAt *time.Time
}

// Role is an industry role with weighted skill requirements.
type Role struct {
	ID           string
	Title        string
	Category     string
	Description  string
	Branches     []string
	DemandScore  int
	Requirements []RoleRequirement
}

// RoleRequirement binds a role to one required skill.
type RoleRequirement struct {
	SkillID   string
	Mandatory bool
	// Weight is the skill's relative importance within the role. Weights
	// need not sum to 1; the engine normalizes by the total it encounters.
	Weight float64
	// MinScore overrides the skill's catalog benchmark when > 0.
	MinScore float64
}
