// Package repository defines the persistence contract for catalog data,
// student records, computed scores, and cached role matches.
package repository

import (
	"context"

	"github.com/okian/skillscope/internal/domain/model"
)

// Store provides read access to source records and read/write access to
// computed results.
type Store interface {
	// Catalog reads.
	Skills(ctx context.Context) ([]model.Skill, error)
	SkillByID(ctx context.Context, id string) (model.Skill, error)
	Roles(ctx context.Context) ([]model.Role, error)
	RoleByID(ctx context.Context, id string) (model.Role, error)

	// Student reads.
	Student(ctx context.Context, id string) (model.Student, error)
	Students(ctx context.Context) ([]model.Student, error)

	// Evidence source reads.
	ProjectsByStudent(ctx context.Context, studentID string) ([]model.Project, error)
	CertificationsByStudent(ctx context.Context, studentID string) ([]model.Certification, error)
	CoursesByStudent(ctx context.Context, studentID string) ([]model.CourseRecord, error)
	InternshipsByStudent(ctx context.Context, studentID string) ([]model.Internship, error)
	AssessmentsByStudent(ctx context.Context, studentID string) ([]model.Assessment, error)

	// Computed results. Scores upsert per (student, skill); role matches are
	// replaced wholesale per student so stale cache rows never survive.
	SkillScoresByStudent(ctx context.Context, studentID string) (map[string]model.SkillScore, error)
	UpsertSkillScores(ctx context.Context, studentID string, scores map[string]model.SkillScore) error
	RoleMatchesByStudent(ctx context.Context, studentID string) ([]*model.RoleMatch, error)
	ReplaceRoleMatches(ctx context.Context, studentID string, matches []*model.RoleMatch) error

	Close() error
}
