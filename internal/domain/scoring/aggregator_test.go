package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func TestTimeDecay(t *testing.T) {
	Convey("Given an aggregator with a fixed clock", t, func() {
		agg := scoring.NewAggregator(scoring.WithAggregatorClock(fixedNow))

		Convey("Then fresh evidence decays nothing", func() {
			So(agg.TimeDecay(fixedNow()), ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("Then a zero date decays nothing", func() {
			So(agg.TimeDecay(time.Time{}), ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("Then a future date is clamped, never boosted", func() {
			So(agg.TimeDecay(fixedNow().Add(90*24*time.Hour)), ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("Then evidence a full window old sits exactly at the floor", func() {
			old := fixedNow().Add(-24 * 30 * 24 * time.Hour)
			So(agg.TimeDecay(old), ShouldAlmostEqual, 0.70, 1e-9)
		})

		Convey("Then decay stays within [floor, 1] and never increases with age", func() {
			prev := 1.0
			for months := 0; months <= 60; months += 3 {
				date := fixedNow().Add(-time.Duration(months) * 30 * 24 * time.Hour)
				d := agg.TimeDecay(date)
				So(d, ShouldBeLessThanOrEqualTo, 1.0)
				So(d, ShouldBeGreaterThanOrEqualTo, 0.70)
				So(d, ShouldBeLessThanOrEqualTo, prev)
				prev = d
			}
		})
	})
}

func TestCredibility(t *testing.T) {
	Convey("Given the default credibility weights", t, func() {
		agg := scoring.NewAggregator()

		Convey("Then sources rank certification first and course last", func() {
			So(agg.Credibility(model.SourceCertification), ShouldAlmostEqual, 1.00, 1e-9)
			So(agg.Credibility(model.SourceInternship), ShouldAlmostEqual, 0.95, 1e-9)
			So(agg.Credibility(model.SourceProject), ShouldAlmostEqual, 0.85, 1e-9)
			So(agg.Credibility(model.SourceAssessment), ShouldAlmostEqual, 0.80, 1e-9)
			So(agg.Credibility(model.SourceCourse), ShouldAlmostEqual, 0.70, 1e-9)
		})

		Convey("Then an unrecognized kind falls back to the unknown weight", func() {
			So(agg.Credibility(model.SourceKind("carrier_pigeon")), ShouldAlmostEqual, 0.50, 1e-9)
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given an aggregator with a fixed clock", t, func() {
		agg := scoring.NewAggregator(scoring.WithAggregatorClock(fixedNow))

		Convey("When aggregating a single fresh certification at full confidence", func() {
			evidence := []model.Evidence{{
				Source:     model.SourceCertification,
				SkillID:    "s-python",
				SkillName:  "Python",
				Confidence: 1.0,
				Date:       fixedNow(),
			}}
			scores := agg.Aggregate("stu-1", evidence)

			Convey("Then the score is exactly 100", func() {
				s := scores["s-python"]
				So(s.Score, ShouldAlmostEqual, 100.0, 1e-9)
				So(s.StudentID, ShouldEqual, "stu-1")
				So(s.SkillName, ShouldEqual, "Python")
				So(s.EvidenceCount, ShouldEqual, 1)
				So(s.LastComputed, ShouldEqual, fixedNow())
			})
		})

		Convey("When the same evidence ages a full decay window", func() {
			old := fixedNow().Add(-24 * 30 * 24 * time.Hour)
			fresh := agg.Aggregate("stu-1", []model.Evidence{{
				Source: model.SourceProject, SkillID: "s-sql", Confidence: 0.9, Date: fixedNow(),
			}})
			stale := agg.Aggregate("stu-1", []model.Evidence{{
				Source: model.SourceProject, SkillID: "s-sql", Confidence: 0.9, Date: old,
			}})

			Convey("Then the stale score is exactly 70% of the fresh score", func() {
				So(stale["s-sql"].Score, ShouldAlmostEqual, fresh["s-sql"].Score*0.70, 1e-9)
			})
		})

		Convey("When evidence from several sources covers one skill", func() {
			evidence := []model.Evidence{
				{Source: model.SourceCertification, SkillID: "s-ml", SkillName: "Machine Learning", Confidence: 0.95, Date: fixedNow()},
				{Source: model.SourceCourse, SkillID: "s-ml", SkillName: "Machine Learning", Confidence: 0.80, Date: fixedNow()},
				{Source: model.SourceProject, SkillID: "s-ml", SkillName: "Machine Learning", Confidence: 0.90, Date: fixedNow()},
			}
			scores := agg.Aggregate("stu-1", evidence)

			Convey("Then the score is the credibility-weighted mean", func() {
				// (0.95*1.00 + 0.80*0.70 + 0.90*0.85) * 100 / (1.00+0.70+0.85)
				want := (0.95 + 0.80*0.70 + 0.90*0.85) * 100.0 / 2.55
				s := scores["s-ml"]
				So(s.Score, ShouldAlmostEqual, want, 1e-9)
				So(s.EvidenceCount, ShouldEqual, 3)
			})
		})

		Convey("When aggregating the same evidence twice", func() {
			evidence := []model.Evidence{
				{Source: model.SourceInternship, SkillID: "s-go", SkillName: "Go", Confidence: 0.85, Date: fixedNow().Add(-90 * 24 * time.Hour)},
				{Source: model.SourceAssessment, SkillID: "s-go", SkillName: "Go", Confidence: 0.72, Date: fixedNow()},
			}
			first := agg.Aggregate("stu-1", evidence)
			second := agg.Aggregate("stu-1", evidence)

			Convey("Then the result is identical", func() {
				So(second["s-go"].Score, ShouldAlmostEqual, first["s-go"].Score, 1e-12)
				So(second["s-go"].EvidenceCount, ShouldEqual, first["s-go"].EvidenceCount)
			})
		})

		Convey("When aggregating any evidence mix", func() {
			evidence := []model.Evidence{
				{Source: model.SourceCertification, SkillID: "s-a", Confidence: 1.0, Date: fixedNow()},
				{Source: model.SourceCourse, SkillID: "s-a", Confidence: 0.1, Date: fixedNow().Add(-500 * 24 * time.Hour)},
				{Source: model.SourceKind("unknown"), SkillID: "s-b", Confidence: 0.5, Date: time.Time{}},
			}
			scores := agg.Aggregate("stu-1", evidence)

			Convey("Then every score stays within [0, 100]", func() {
				for _, s := range scores {
					So(s.Score, ShouldBeGreaterThanOrEqualTo, 0.0)
					So(s.Score, ShouldBeLessThanOrEqualTo, 100.0)
				}
			})
		})

		Convey("When there is no evidence at all", func() {
			scores := agg.Aggregate("stu-1", nil)

			Convey("Then no scores are produced", func() {
				So(scores, ShouldBeEmpty)
			})
		})
	})
}
