package scoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/skillscope/internal/domain/match"
	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type stubSources struct {
	projects    []model.Project
	certs       []model.Certification
	courses     []model.CourseRecord
	internships []model.Internship
	assessments []model.Assessment
	err         error
}

func (s *stubSources) ProjectsByStudent(context.Context, string) ([]model.Project, error) {
	return s.projects, s.err
}

func (s *stubSources) CertificationsByStudent(context.Context, string) ([]model.Certification, error) {
	return s.certs, s.err
}

func (s *stubSources) CoursesByStudent(context.Context, string) ([]model.CourseRecord, error) {
	return s.courses, s.err
}

func (s *stubSources) InternshipsByStudent(context.Context, string) ([]model.Internship, error) {
	return s.internships, s.err
}

func (s *stubSources) AssessmentsByStudent(context.Context, string) ([]model.Assessment, error) {
	return s.assessments, s.err
}

type stubCatalog struct {
	skills []model.Skill
}

func (s *stubCatalog) Skills(context.Context) ([]model.Skill, error) {
	return s.skills, nil
}

type stubExtractor struct {
	matches []model.SkillMatch
	texts   []string
}

func (s *stubExtractor) Match(_ context.Context, text string, source model.SourceKind, _ ...match.CallOption) ([]model.SkillMatch, error) {
	s.texts = append(s.texts, text)
	out := make([]model.SkillMatch, len(s.matches))
	for i, m := range s.matches {
		m.Source = source
		out[i] = m
	}
	return out, nil
}

type stubCertMapper struct {
	matches []model.SkillMatch
}

func (s *stubCertMapper) Map(context.Context, string, string) ([]model.SkillMatch, error) {
	return s.matches, nil
}

type stubCourseMapper struct {
	matches []model.SkillMatch
}

func (s *stubCourseMapper) Map(context.Context, string, string, string) ([]model.SkillMatch, error) {
	return s.matches, nil
}

func TestCollect(t *testing.T) {
	now := fixedNow()
	clock := scoring.WithCollectorClock(fixedNow)
	ptr := func(t time.Time) *time.Time { return &t }

	Convey("Given a student with records in every source", t, func() {
		end := now.Add(-60 * 24 * time.Hour)
		issued := now.Add(-200 * 24 * time.Hour)
		completed := now.Add(-30 * 24 * time.Hour)

		sources := &stubSources{
			projects: []model.Project{{
				ID: "p1", Title: "Churn Model", Description: "built a churn model in python",
				EndDate: ptr(end),
			}},
			certs: []model.Certification{{
				ID: "c1", Name: "AWS Certified Solutions Architect", Provider: "Amazon",
				IssueDate: ptr(issued),
			}},
			courses: []model.CourseRecord{{
				Course:      model.Course{ID: "crs1", Code: "CS101", Name: "Intro to Programming"},
				CompletedAt: ptr(completed),
			}},
			internships: []model.Internship{{
				ID: "i1", Company: "Initech", Description: "maintained sql reports",
				StartDate: ptr(end),
			}},
			assessments: []model.Assessment{{
				ID: "a1", SkillID: "s-python", Kind: "coding_challenge", Score: 82,
				CompletedAt: ptr(completed),
			}},
		}
		catalog := &stubCatalog{skills: []model.Skill{{ID: "s-python", Name: "Python"}}}
		extract := &stubExtractor{matches: []model.SkillMatch{
			{SkillID: "s-python", SkillName: "Python", Confidence: 0.85},
		}}
		certs := &stubCertMapper{matches: []model.SkillMatch{
			{SkillID: "s-cloud", SkillName: "Cloud Computing", Confidence: 0.95, Source: model.SourceCertification},
		}}
		courses := &stubCourseMapper{matches: []model.SkillMatch{
			{SkillID: "s-prog", SkillName: "Programming", Confidence: 0.70, Source: model.SourceCourse},
		}}

		collector := scoring.NewCollector(sources, catalog, extract, certs, courses, clock)

		Convey("When collecting", func() {
			evidence, err := collector.Collect(context.Background(), "stu-1")
			So(err, ShouldBeNil)

			bySource := make(map[model.SourceKind][]model.Evidence)
			for _, e := range evidence {
				bySource[e.Source] = append(bySource[e.Source], e)
			}

			Convey("Then every source contributes evidence", func() {
				So(len(evidence), ShouldEqual, 5)
				So(bySource, ShouldContainKey, model.SourceProject)
				So(bySource, ShouldContainKey, model.SourceCertification)
				So(bySource, ShouldContainKey, model.SourceCourse)
				So(bySource, ShouldContainKey, model.SourceInternship)
				So(bySource, ShouldContainKey, model.SourceAssessment)
			})

			Convey("Then project evidence carries its end date and title", func() {
				p := bySource[model.SourceProject][0]
				So(p.Date, ShouldEqual, end)
				So(p.Justification, ShouldEqual, "Project: Churn Model")
				So(p.SourceID, ShouldEqual, "p1")
			})

			Convey("Then an internship without an end date falls back to its start date", func() {
				i := bySource[model.SourceInternship][0]
				So(i.Date, ShouldEqual, end)
				So(i.Justification, ShouldEqual, "Internship: Initech")
			})

			Convey("Then certification and course evidence carry their own dates", func() {
				So(bySource[model.SourceCertification][0].Date, ShouldEqual, issued)
				So(bySource[model.SourceCertification][0].Justification, ShouldEqual, "Certification: AWS Certified Solutions Architect")
				So(bySource[model.SourceCourse][0].Date, ShouldEqual, completed)
				So(bySource[model.SourceCourse][0].Justification, ShouldEqual, "Course: Intro to Programming")
			})

			Convey("Then assessments become direct evidence at score/100", func() {
				a := bySource[model.SourceAssessment][0]
				So(a.Confidence, ShouldAlmostEqual, 0.82, 1e-9)
				So(a.SkillName, ShouldEqual, "Python")
				So(a.Justification, ShouldEqual, "Assessment: coding_challenge")
			})

			Convey("Then both free-text descriptions went through extraction", func() {
				So(extract.texts, ShouldHaveLength, 2)
				So(extract.texts, ShouldContain, "built a churn model in python")
				So(extract.texts, ShouldContain, "maintained sql reports")
			})
		})
	})

	Convey("Given a project with no dates at all", t, func() {
		sources := &stubSources{projects: []model.Project{{
			ID: "p1", Title: "Sandbox", Description: "tinkering with python",
		}}}
		extract := &stubExtractor{matches: []model.SkillMatch{
			{SkillID: "s-python", SkillName: "Python", Confidence: 0.85},
		}}
		collector := scoring.NewCollector(sources, &stubCatalog{}, extract, &stubCertMapper{}, &stubCourseMapper{}, clock)

		Convey("Then evidence falls back to the current time", func() {
			evidence, err := collector.Collect(context.Background(), "stu-1")
			So(err, ShouldBeNil)
			So(evidence[0].Date, ShouldEqual, now)
		})
	})

	Convey("Given an assessment pointing at a skill missing from the catalog", t, func() {
		sources := &stubSources{assessments: []model.Assessment{{
			ID: "a1", SkillID: "s-ghost", Kind: "quiz", Score: 90,
		}}}
		collector := scoring.NewCollector(sources, &stubCatalog{}, &stubExtractor{}, &stubCertMapper{}, &stubCourseMapper{}, clock)

		Convey("Then it is skipped rather than scored blind", func() {
			evidence, err := collector.Collect(context.Background(), "stu-1")
			So(err, ShouldBeNil)
			So(evidence, ShouldBeEmpty)
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("storage down")
		sources := &stubSources{err: boom}
		collector := scoring.NewCollector(sources, &stubCatalog{}, &stubExtractor{}, &stubCertMapper{}, &stubCourseMapper{}, clock)

		Convey("Then collection fails with the package sentinel", func() {
			_, err := collector.Collect(context.Background(), "stu-1")
			So(errors.Is(err, scoring.ErrCollect), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Given a student with empty descriptions everywhere", t, func() {
		sources := &stubSources{
			projects:    []model.Project{{ID: "p1", Title: "Empty"}},
			internships: []model.Internship{{ID: "i1", Company: "Nowhere"}},
		}
		extract := &stubExtractor{matches: []model.SkillMatch{
			{SkillID: "s-python", SkillName: "Python", Confidence: 0.85},
		}}
		collector := scoring.NewCollector(sources, &stubCatalog{}, extract, &stubCertMapper{}, &stubCourseMapper{}, clock)

		Convey("Then nothing is extracted", func() {
			evidence, err := collector.Collect(context.Background(), "stu-1")
			So(err, ShouldBeNil)
			So(evidence, ShouldBeEmpty)
			So(extract.texts, ShouldBeEmpty)
		})
	})
}
