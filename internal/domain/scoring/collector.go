package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/skillscope/internal/domain/match"
	"github.com/okian/skillscope/internal/domain/model"
)

// Sources provides per-student reads of the raw evidence records.
type Sources interface {
	ProjectsByStudent(ctx context.Context, studentID string) ([]model.Project, error)
	CertificationsByStudent(ctx context.Context, studentID string) ([]model.Certification, error)
	CoursesByStudent(ctx context.Context, studentID string) ([]model.CourseRecord, error)
	InternshipsByStudent(ctx context.Context, studentID string) ([]model.Internship, error)
	AssessmentsByStudent(ctx context.Context, studentID string) ([]model.Assessment, error)
}

// Catalog provides the skill taxonomy.
type Catalog interface {
	Skills(ctx context.Context) ([]model.Skill, error)
}

// Extractor matches free text against the skill vocabulary.
type Extractor interface {
	Match(ctx context.Context, text string, source model.SourceKind, opts ...match.CallOption) ([]model.SkillMatch, error)
}

// CertMapper maps certification titles to skills.
type CertMapper interface {
	Map(ctx context.Context, title, provider string) ([]model.SkillMatch, error)
}

// CourseMapper maps course codes, names, and syllabi to skills.
type CourseMapper interface {
	Map(ctx context.Context, code, name, syllabus string) ([]model.SkillMatch, error)
}

// CollectorOption applies a configuration option to the Collector.
type CollectorOption func(*Collector)

// WithCollectorClock overrides the time source, for deterministic tests.
func WithCollectorClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// Collector pulls a student's records from every source kind and normalizes
// them into one uniform Evidence stream. It applies no weighting itself.
type Collector struct {
	sources Sources
	catalog Catalog
	extract Extractor
	certs   CertMapper
	courses CourseMapper
	now     func() time.Time
}

// NewCollector wires a Collector from its collaborators.
func NewCollector(sources Sources, catalog Catalog, extract Extractor, certs CertMapper, courses CourseMapper, opts ...CollectorOption) *Collector {
	c := &Collector{
		sources: sources,
		catalog: catalog,
		extract: extract,
		certs:   certs,
		courses: courses,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect gathers all evidence for one student. Reads across source kinds
// run concurrently; the result order is projects, certifications, courses,
// internships, assessments.
func (c *Collector) Collect(ctx context.Context, studentID string) ([]model.Evidence, error) {
	var (
		mu      sync.Mutex
		buckets [5][]model.Evidence
	)
	collect := func(idx int, fn func(context.Context) ([]model.Evidence, error)) func() error {
		return func() error {
			ev, err := fn(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			buckets[idx] = ev
			mu.Unlock()
			return nil
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(collect(0, func(ctx context.Context) ([]model.Evidence, error) { return c.fromProjects(ctx, studentID) }))
	g.Go(collect(1, func(ctx context.Context) ([]model.Evidence, error) { return c.fromCertifications(ctx, studentID) }))
	g.Go(collect(2, func(ctx context.Context) ([]model.Evidence, error) { return c.fromCourses(ctx, studentID) }))
	g.Go(collect(3, func(ctx context.Context) ([]model.Evidence, error) { return c.fromInternships(ctx, studentID) }))
	g.Go(collect(4, func(ctx context.Context) ([]model.Evidence, error) { return c.fromAssessments(ctx, studentID) }))
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollect, err)
	}

	var all []model.Evidence
	for _, b := range buckets {
		all = append(all, b...)
	}
	return all, nil
}

func (c *Collector) fromProjects(ctx context.Context, studentID string) ([]model.Evidence, error) {
	projects, err := c.sources.ProjectsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var evidence []model.Evidence
	for _, p := range projects {
		if p.Description == "" {
			continue
		}
		matches, err := c.extract.Match(ctx, p.Description, model.SourceProject, match.WithBulletSplit())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			evidence = append(evidence, model.Evidence{
				Source:        model.SourceProject,
				SourceID:      p.ID,
				SkillID:       m.SkillID,
				SkillName:     m.SkillName,
				Confidence:    m.Confidence,
				Date:          c.pickDate(p.EndDate, p.StartDate),
				Justification: "Project: " + p.Title,
			})
		}
	}
	return evidence, nil
}

func (c *Collector) fromCertifications(ctx context.Context, studentID string) ([]model.Evidence, error) {
	certs, err := c.sources.CertificationsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var evidence []model.Evidence
	for _, cert := range certs {
		matches, err := c.certs.Map(ctx, cert.Name, cert.Provider)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			evidence = append(evidence, model.Evidence{
				Source:        model.SourceCertification,
				SourceID:      cert.ID,
				SkillID:       m.SkillID,
				SkillName:     m.SkillName,
				Confidence:    m.Confidence,
				Date:          c.pickDate(cert.IssueDate, nil),
				Justification: "Certification: " + cert.Name,
			})
		}
	}
	return evidence, nil
}

func (c *Collector) fromCourses(ctx context.Context, studentID string) ([]model.Evidence, error) {
	records, err := c.sources.CoursesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var evidence []model.Evidence
	for _, rec := range records {
		matches, err := c.courses.Map(ctx, rec.Course.Code, rec.Course.Name, rec.Course.Syllabus)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			evidence = append(evidence, model.Evidence{
				Source:        model.SourceCourse,
				SourceID:      rec.Course.ID,
				SkillID:       m.SkillID,
				SkillName:     m.SkillName,
				Confidence:    m.Confidence,
				Date:          c.pickDate(rec.CompletedAt, nil),
				Justification: "Course: " + rec.Course.Name,
			})
		}
	}
	return evidence, nil
}

func (c *Collector) fromInternships(ctx context.Context, studentID string) ([]model.Evidence, error) {
	internships, err := c.sources.InternshipsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var evidence []model.Evidence
	for _, in := range internships {
		if in.Description == "" {
			continue
		}
		matches, err := c.extract.Match(ctx, in.Description, model.SourceInternship, match.WithBulletSplit())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			evidence = append(evidence, model.Evidence{
				Source:        model.SourceInternship,
				SourceID:      in.ID,
				SkillID:       m.SkillID,
				SkillName:     m.SkillName,
				Confidence:    m.Confidence,
				Date:          c.pickDate(in.EndDate, in.StartDate),
				Justification: "Internship: " + in.Company,
			})
		}
	}
	return evidence, nil
}

// fromAssessments converts direct assessments verbatim: score/100 becomes
// confidence, no text matching involved.
func (c *Collector) fromAssessments(ctx context.Context, studentID string) ([]model.Evidence, error) {
	assessments, err := c.sources.AssessmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return nil, nil
	}

	skills, err := c.catalog.Skills(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(skills))
	for _, s := range skills {
		names[s.ID] = s.Name
	}

	var evidence []model.Evidence
	for _, a := range assessments {
		name, ok := names[a.SkillID]
		if !ok {
			// Dangling skill reference; a data-layer concern, not scored.
			continue
		}
		evidence = append(evidence, model.Evidence{
			Source:        model.SourceAssessment,
			SourceID:      a.ID,
			SkillID:       a.SkillID,
			SkillName:     name,
			Confidence:    a.Score / 100.0,
			Date:          c.pickDate(a.CompletedAt, nil),
			Justification: "Assessment: " + a.Kind,
		})
	}
	return evidence, nil
}

// pickDate prefers the completion/end date, falls back to the start date,
// then to now.
func (c *Collector) pickDate(end, start *time.Time) time.Time {
	if end != nil && !end.IsZero() {
		return *end
	}
	if start != nil && !start.IsZero() {
		return *start
	}
	return c.now()
}
