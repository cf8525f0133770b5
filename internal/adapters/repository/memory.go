package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/pkg/metrics"
)

// orNewID assigns record IDs that fixtures leave blank.
func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// MemoryStore is an in-memory Store. It backs tests and single-process
// deployments that seed catalog data at startup.
type MemoryStore struct {
	mu sync.RWMutex

	skills   map[string]model.Skill
	roles    map[string]model.Role
	students map[string]model.Student

	projects    map[string][]model.Project
	certs       map[string][]model.Certification
	courses     map[string][]model.CourseRecord
	internships map[string][]model.Internship
	assessments map[string][]model.Assessment

	scores      map[string]map[string]model.SkillScore
	roleMatches map[string][]*model.RoleMatch
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		skills:      make(map[string]model.Skill),
		roles:       make(map[string]model.Role),
		students:    make(map[string]model.Student),
		projects:    make(map[string][]model.Project),
		certs:       make(map[string][]model.Certification),
		courses:     make(map[string][]model.CourseRecord),
		internships: make(map[string][]model.Internship),
		assessments: make(map[string][]model.Assessment),
		scores:      make(map[string]map[string]model.SkillScore),
		roleMatches: make(map[string][]*model.RoleMatch),
	}
}

// Seed methods, for startup fixtures and tests.

func (s *MemoryStore) AddSkill(skill model.Skill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills[skill.ID] = skill
}

func (s *MemoryStore) AddRole(role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[role.ID] = role
}

func (s *MemoryStore) AddStudent(student model.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[student.ID] = student
}

func (s *MemoryStore) AddProject(p model.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = orNewID(p.ID)
	s.projects[p.StudentID] = append(s.projects[p.StudentID], p)
}

func (s *MemoryStore) AddCertification(c model.Certification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = orNewID(c.ID)
	s.certs[c.StudentID] = append(s.certs[c.StudentID], c)
}

func (s *MemoryStore) AddCourseRecord(r model.CourseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[r.StudentID] = append(s.courses[r.StudentID], r)
}

func (s *MemoryStore) AddInternship(i model.Internship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = orNewID(i.ID)
	s.internships[i.StudentID] = append(s.internships[i.StudentID], i)
}

func (s *MemoryStore) AddAssessment(a model.Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = orNewID(a.ID)
	s.assessments[a.StudentID] = append(s.assessments[a.StudentID], a)
}

// Store implementation.

func (s *MemoryStore) Skills(_ context.Context) ([]model.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Skill, 0, len(s.skills))
	for _, skill := range s.skills {
		out = append(out, skill)
	}
	return out, nil
}

func (s *MemoryStore) SkillByID(_ context.Context, id string) (model.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	skill, ok := s.skills[id]
	if !ok {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Skill{}, ErrNotFound
	}
	return skill, nil
}

func (s *MemoryStore) Roles(_ context.Context) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (s *MemoryStore) RoleByID(_ context.Context, id string) (model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Role{}, ErrNotFound
	}
	return role, nil
}

func (s *MemoryStore) Student(_ context.Context, id string) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[id]
	if !ok {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Student{}, ErrNotFound
	}
	return student, nil
}

func (s *MemoryStore) Students(_ context.Context) ([]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Student, 0, len(s.students))
	for _, student := range s.students {
		out = append(out, student)
	}
	return out, nil
}

func (s *MemoryStore) ProjectsByStudent(_ context.Context, studentID string) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Project(nil), s.projects[studentID]...), nil
}

func (s *MemoryStore) CertificationsByStudent(_ context.Context, studentID string) ([]model.Certification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Certification(nil), s.certs[studentID]...), nil
}

func (s *MemoryStore) CoursesByStudent(_ context.Context, studentID string) ([]model.CourseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CourseRecord(nil), s.courses[studentID]...), nil
}

func (s *MemoryStore) InternshipsByStudent(_ context.Context, studentID string) ([]model.Internship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Internship(nil), s.internships[studentID]...), nil
}

func (s *MemoryStore) AssessmentsByStudent(_ context.Context, studentID string) ([]model.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Assessment(nil), s.assessments[studentID]...), nil
}

func (s *MemoryStore) SkillScoresByStudent(_ context.Context, studentID string) (map[string]model.SkillScore, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.SkillScore, len(s.scores[studentID]))
	for id, score := range s.scores[studentID] {
		out[id] = score
	}
	return out, nil
}

// UpsertSkillScores merges the given scores into the student's existing
// rows, overwriting per skill.
func (s *MemoryStore) UpsertSkillScores(_ context.Context, studentID string, scores map[string]model.SkillScore) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.scores[studentID]
	if !ok {
		existing = make(map[string]model.SkillScore, len(scores))
		s.scores[studentID] = existing
	}
	for id, score := range scores {
		existing[id] = score
	}
	metrics.UpdateStudentsTracked(len(s.scores))
	return nil
}

func (s *MemoryStore) RoleMatchesByStudent(_ context.Context, studentID string) ([]*model.RoleMatch, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.RoleMatch(nil), s.roleMatches[studentID]...), nil
}

// ReplaceRoleMatches swaps the student's cached matches wholesale.
func (s *MemoryStore) ReplaceRoleMatches(_ context.Context, studentID string, matches []*model.RoleMatch) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleMatches[studentID] = append([]*model.RoleMatch(nil), matches...)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
