package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS skills (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	category        TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	branches        TEXT NOT NULL DEFAULT '[]',
	benchmark_score REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS students (
	id          TEXT PRIMARY KEY,
	roll_number TEXT NOT NULL DEFAULT '',
	full_name   TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	branch      TEXT NOT NULL DEFAULT '',
	batch_year  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	start_date  TEXT,
	end_date    TEXT
);
CREATE INDEX IF NOT EXISTS idx_projects_student ON projects(student_id);

CREATE TABLE IF NOT EXISTS certifications (
	id         TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	provider   TEXT NOT NULL DEFAULT '',
	issue_date TEXT
);
CREATE INDEX IF NOT EXISTS idx_certifications_student ON certifications(student_id);

CREATE TABLE IF NOT EXISTS courses (
	id       TEXT PRIMARY KEY,
	code     TEXT NOT NULL DEFAULT '',
	name     TEXT NOT NULL DEFAULT '',
	syllabus TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS course_records (
	student_id   TEXT NOT NULL,
	course_id    TEXT NOT NULL,
	grade        TEXT NOT NULL DEFAULT '',
	completed_at TEXT,
	PRIMARY KEY (student_id, course_id)
);

CREATE TABLE IF NOT EXISTS internships (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	start_date  TEXT,
	end_date    TEXT
);
CREATE INDEX IF NOT EXISTS idx_internships_student ON internships(student_id);

CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	student_id   TEXT NOT NULL,
	skill_id     TEXT NOT NULL,
	kind         TEXT NOT NULL DEFAULT '',
	score        REAL NOT NULL DEFAULT 0,
	completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_assessments_student ON assessments(student_id);

CREATE TABLE IF NOT EXISTS roles (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	branches     TEXT NOT NULL DEFAULT '[]',
	demand_score INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS role_requirements (
	role_id   TEXT NOT NULL,
	skill_id  TEXT NOT NULL,
	mandatory INTEGER NOT NULL DEFAULT 0,
	weight    REAL NOT NULL DEFAULT 1,
	min_score REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (role_id, skill_id)
);

CREATE TABLE IF NOT EXISTS skill_scores (
	student_id     TEXT NOT NULL,
	skill_id       TEXT NOT NULL,
	skill_name     TEXT NOT NULL DEFAULT '',
	score          REAL NOT NULL DEFAULT 0,
	evidence_count INTEGER NOT NULL DEFAULT 0,
	last_computed  TEXT NOT NULL,
	PRIMARY KEY (student_id, skill_id)
);

CREATE TABLE IF NOT EXISTS role_matches (
	student_id        TEXT NOT NULL,
	role_id           TEXT NOT NULL,
	role_title        TEXT NOT NULL DEFAULT '',
	compatibility     REAL NOT NULL DEFAULT 0,
	matched_skills    INTEGER NOT NULL DEFAULT 0,
	total_required    INTEGER NOT NULL DEFAULT 0,
	missing_mandatory TEXT NOT NULL DEFAULT '[]',
	breakdown         TEXT NOT NULL DEFAULT '[]',
	computed_at       TEXT NOT NULL,
	PRIMARY KEY (student_id, role_id)
);
`

// SQLiteStore is a Store backed by an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite store at the given DSN.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	// modernc sqlite serializes writes; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Nullable date helpers. Dates travel as RFC 3339 strings.

func dateToSQL(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func dateFromSQL(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Seed writers. Catalog and student records are owned by upstream systems;
// these exist for fixtures and seed tooling.

func (s *SQLiteStore) AddSkill(ctx context.Context, skill model.Skill) error {
	branches, err := json.Marshal(skill.Branches)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO skills (id, name, category, description, branches, benchmark_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			description = excluded.description,
			branches = excluded.branches,
			benchmark_score = excluded.benchmark_score`,
		skill.ID, skill.Name, skill.Category, skill.Description, string(branches), skill.BenchmarkScore)
	return err
}

func (s *SQLiteStore) AddRole(ctx context.Context, role model.Role) error {
	branches, err := json.Marshal(role.Branches)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT INTO roles (id, title, category, description, branches, demand_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			description = excluded.description,
			branches = excluded.branches,
			demand_score = excluded.demand_score`,
		role.ID, role.Title, role.Category, role.Description, string(branches), role.DemandScore)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM role_requirements WHERE role_id = ?`, role.ID); err != nil {
		return err
	}
	for _, req := range role.Requirements {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO role_requirements (role_id, skill_id, mandatory, weight, min_score)
			VALUES (?, ?, ?, ?, ?)`,
			role.ID, req.SkillID, req.Mandatory, req.Weight, req.MinScore)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AddStudent(ctx context.Context, st model.Student) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, roll_number, full_name, email, branch, batch_year)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			roll_number = excluded.roll_number,
			full_name = excluded.full_name,
			email = excluded.email,
			branch = excluded.branch,
			batch_year = excluded.batch_year`,
		st.ID, st.RollNumber, st.FullName, st.Email, st.Branch, st.BatchYear)
	return err
}

func (s *SQLiteStore) AddProject(ctx context.Context, p model.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO projects (id, student_id, title, description, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		orNewID(p.ID), p.StudentID, p.Title, p.Description, dateToSQL(p.StartDate), dateToSQL(p.EndDate))
	return err
}

func (s *SQLiteStore) AddCertification(ctx context.Context, c model.Certification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO certifications (id, student_id, name, provider, issue_date)
		VALUES (?, ?, ?, ?, ?)`,
		orNewID(c.ID), c.StudentID, c.Name, c.Provider, dateToSQL(c.IssueDate))
	return err
}

func (s *SQLiteStore) AddCourseRecord(ctx context.Context, rec model.CourseRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO courses (id, code, name, syllabus)
		VALUES (?, ?, ?, ?)`,
		rec.Course.ID, rec.Course.Code, rec.Course.Name, rec.Course.Syllabus)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO course_records (student_id, course_id, grade, completed_at)
		VALUES (?, ?, ?, ?)`,
		rec.StudentID, rec.Course.ID, rec.Grade, dateToSQL(rec.CompletedAt))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) AddInternship(ctx context.Context, in model.Internship) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO internships (id, student_id, company, description, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		orNewID(in.ID), in.StudentID, in.Company, in.Description, dateToSQL(in.StartDate), dateToSQL(in.EndDate))
	return err
}

func (s *SQLiteStore) AddAssessment(ctx context.Context, a model.Assessment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assessments (id, student_id, skill_id, kind, score, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		orNewID(a.ID), a.StudentID, a.SkillID, a.Kind, a.Score, dateToSQL(a.CompletedAt))
	return err
}

func (s *SQLiteStore) Skills(ctx context.Context) ([]model.Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, description, branches, benchmark_score FROM skills`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []model.Skill
	for rows.Next() {
		skill, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, rows.Err()
}

func (s *SQLiteStore) SkillByID(ctx context.Context, id string) (model.Skill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, description, branches, benchmark_score FROM skills WHERE id = ?`, id)
	skill, err := scanSkill(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Skill{}, ErrNotFound
	}
	return skill, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSkill(row scanner) (model.Skill, error) {
	var skill model.Skill
	var branches string
	if err := row.Scan(&skill.ID, &skill.Name, &skill.Category, &skill.Description, &branches, &skill.BenchmarkScore); err != nil {
		return model.Skill{}, err
	}
	if err := json.Unmarshal([]byte(branches), &skill.Branches); err != nil {
		return model.Skill{}, err
	}
	return skill, nil
}

func (s *SQLiteStore) Roles(ctx context.Context) ([]model.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, category, description, branches, demand_score FROM roles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		var branches string
		if err := rows.Scan(&role.ID, &role.Title, &role.Category, &role.Description, &branches, &role.DemandScore); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(branches), &role.Branches); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		reqs, err := s.requirements(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Requirements = reqs
	}
	return roles, nil
}

func (s *SQLiteStore) RoleByID(ctx context.Context, id string) (model.Role, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, category, description, branches, demand_score FROM roles WHERE id = ?`, id)

	var role model.Role
	var branches string
	err := row.Scan(&role.ID, &role.Title, &role.Category, &role.Description, &branches, &role.DemandScore)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Role{}, ErrNotFound
	}
	if err != nil {
		return model.Role{}, err
	}
	if err := json.Unmarshal([]byte(branches), &role.Branches); err != nil {
		return model.Role{}, err
	}
	role.Requirements, err = s.requirements(ctx, role.ID)
	return role, err
}

func (s *SQLiteStore) requirements(ctx context.Context, roleID string) ([]model.RoleRequirement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT skill_id, mandatory, weight, min_score FROM role_requirements WHERE role_id = ? ORDER BY skill_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []model.RoleRequirement
	for rows.Next() {
		var req model.RoleRequirement
		if err := rows.Scan(&req.SkillID, &req.Mandatory, &req.Weight, &req.MinScore); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (s *SQLiteStore) Student(ctx context.Context, id string) (model.Student, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, roll_number, full_name, email, branch, batch_year FROM students WHERE id = ?`, id)

	var st model.Student
	err := row.Scan(&st.ID, &st.RollNumber, &st.FullName, &st.Email, &st.Branch, &st.BatchYear)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Student{}, ErrNotFound
	}
	return st, err
}

func (s *SQLiteStore) Students(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, roll_number, full_name, email, branch, batch_year FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.RollNumber, &st.FullName, &st.Email, &st.Branch, &st.BatchYear); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *SQLiteStore) ProjectsByStudent(ctx context.Context, studentID string) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, title, description, start_date, end_date FROM projects WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var start, end sql.NullString
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Title, &p.Description, &start, &end); err != nil {
			return nil, err
		}
		if p.StartDate, err = dateFromSQL(start); err != nil {
			return nil, err
		}
		if p.EndDate, err = dateFromSQL(end); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) CertificationsByStudent(ctx context.Context, studentID string) ([]model.Certification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, name, provider, issue_date FROM certifications WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []model.Certification
	for rows.Next() {
		var c model.Certification
		var issued sql.NullString
		if err := rows.Scan(&c.ID, &c.StudentID, &c.Name, &c.Provider, &issued); err != nil {
			return nil, err
		}
		if c.IssueDate, err = dateFromSQL(issued); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

func (s *SQLiteStore) CoursesByStudent(ctx context.Context, studentID string) ([]model.CourseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.code, c.name, c.syllabus, r.student_id, r.grade, r.completed_at
		FROM course_records r JOIN courses c ON c.id = r.course_id
		WHERE r.student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.CourseRecord
	for rows.Next() {
		var rec model.CourseRecord
		var completed sql.NullString
		if err := rows.Scan(&rec.Course.ID, &rec.Course.Code, &rec.Course.Name, &rec.Course.Syllabus,
			&rec.StudentID, &rec.Grade, &completed); err != nil {
			return nil, err
		}
		if rec.CompletedAt, err = dateFromSQL(completed); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) InternshipsByStudent(ctx context.Context, studentID string) ([]model.Internship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, company, description, start_date, end_date FROM internships WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var internships []model.Internship
	for rows.Next() {
		var in model.Internship
		var start, end sql.NullString
		if err := rows.Scan(&in.ID, &in.StudentID, &in.Company, &in.Description, &start, &end); err != nil {
			return nil, err
		}
		if in.StartDate, err = dateFromSQL(start); err != nil {
			return nil, err
		}
		if in.EndDate, err = dateFromSQL(end); err != nil {
			return nil, err
		}
		internships = append(internships, in)
	}
	return internships, rows.Err()
}

func (s *SQLiteStore) AssessmentsByStudent(ctx context.Context, studentID string) ([]model.Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, skill_id, kind, score, completed_at FROM assessments WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		var a model.Assessment
		var completed sql.NullString
		if err := rows.Scan(&a.ID, &a.StudentID, &a.SkillID, &a.Kind, &a.Score, &completed); err != nil {
			return nil, err
		}
		if a.CompletedAt, err = dateFromSQL(completed); err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

func (s *SQLiteStore) SkillScoresByStudent(ctx context.Context, studentID string) (map[string]model.SkillScore, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id, skill_id, skill_name, score, evidence_count, last_computed FROM skill_scores WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make(map[string]model.SkillScore)
	for rows.Next() {
		var sc model.SkillScore
		var computed string
		if err := rows.Scan(&sc.StudentID, &sc.SkillID, &sc.SkillName, &sc.Score, &sc.EvidenceCount, &computed); err != nil {
			return nil, err
		}
		if sc.LastComputed, err = time.Parse(time.RFC3339, computed); err != nil {
			return nil, err
		}
		scores[sc.SkillID] = sc
	}
	return scores, rows.Err()
}

func (s *SQLiteStore) UpsertSkillScores(ctx context.Context, studentID string, scores map[string]model.SkillScore) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, sc := range scores {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skill_scores (student_id, skill_id, skill_name, score, evidence_count, last_computed)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(student_id, skill_id) DO UPDATE SET
				skill_name = excluded.skill_name,
				score = excluded.score,
				evidence_count = excluded.evidence_count,
				last_computed = excluded.last_computed`,
			studentID, sc.SkillID, sc.SkillName, sc.Score, sc.EvidenceCount,
			sc.LastComputed.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) RoleMatchesByStudent(ctx context.Context, studentID string) ([]*model.RoleMatch, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, role_id, role_title, compatibility, matched_skills, total_required,
		       missing_mandatory, breakdown, computed_at
		FROM role_matches WHERE student_id = ? ORDER BY compatibility DESC, role_id ASC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*model.RoleMatch
	for rows.Next() {
		var m model.RoleMatch
		var missing, breakdown, computed string
		if err := rows.Scan(&m.StudentID, &m.RoleID, &m.RoleTitle, &m.Compatibility, &m.MatchedSkills,
			&m.TotalRequired, &missing, &breakdown, &computed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(missing), &m.MissingMandatory); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(breakdown), &m.Breakdown); err != nil {
			return nil, err
		}
		if m.ComputedAt, err = time.Parse(time.RFC3339, computed); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// ReplaceRoleMatches deletes the student's cached matches and inserts the
// new set in one transaction.
func (s *SQLiteStore) ReplaceRoleMatches(ctx context.Context, studentID string, matches []*model.RoleMatch) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_matches WHERE student_id = ?`, studentID); err != nil {
		return err
	}
	for _, m := range matches {
		missing, err := json.Marshal(m.MissingMandatory)
		if err != nil {
			return err
		}
		breakdown, err := json.Marshal(m.Breakdown)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO role_matches (student_id, role_id, role_title, compatibility, matched_skills,
				total_required, missing_mandatory, breakdown, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			studentID, m.RoleID, m.RoleTitle, m.Compatibility, m.MatchedSkills, m.TotalRequired,
			string(missing), string(breakdown), m.ComputedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
