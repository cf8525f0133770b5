package roles_test

import (
	"testing"
	"time"

	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/internal/domain/roles"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func skillsByID() map[string]model.Skill {
	return map[string]model.Skill{
		"s-python": {ID: "s-python", Name: "Python", BenchmarkScore: 70},
		"s-sql":    {ID: "s-sql", Name: "SQL", BenchmarkScore: 60},
		"s-ml":     {ID: "s-ml", Name: "Machine Learning", BenchmarkScore: 75},
	}
}

func backendRole() model.Role {
	return model.Role{
		ID:    "r-backend",
		Title: "Backend Developer",
		Requirements: []model.RoleRequirement{
			{SkillID: "s-python", Mandatory: true, Weight: 2.0},
			{SkillID: "s-sql", Mandatory: false, Weight: 1.0},
		},
	}
}

func scoresOf(pairs map[string]float64) map[string]model.SkillScore {
	out := make(map[string]model.SkillScore, len(pairs))
	for id, score := range pairs {
		out[id] = model.SkillScore{StudentID: "stu-1", SkillID: id, Score: score}
	}
	return out
}

func TestCompatibility(t *testing.T) {
	Convey("Given the default engine and a backend role", t, func() {
		engine := roles.New(roles.WithClock(fixedNow))
		role := backendRole()
		skills := skillsByID()

		Convey("When every skill clears its benchmark", func() {
			match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
				"s-python": 90, "s-sql": 80,
			}), role, skills)

			Convey("Then compatibility is a perfect 100", func() {
				So(match, ShouldNotBeNil)
				So(match.Compatibility, ShouldAlmostEqual, 100.0, 1e-9)
				So(match.MatchedSkills, ShouldEqual, 2)
				So(match.TotalRequired, ShouldEqual, 2)
				So(match.Disqualified(), ShouldBeFalse)
				So(match.ComputedAt, ShouldEqual, fixedNow())
			})
		})

		Convey("When a mandatory skill falls below 80% of its benchmark", func() {
			match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
				"s-python": 50, "s-sql": 80,
			}), role, skills)

			Convey("Then the role is disqualified by name", func() {
				So(match.Disqualified(), ShouldBeTrue)
				So(match.MissingMandatory, ShouldResemble, []string{"Python"})
			})

			Convey("And the breakdown still covers every requirement", func() {
				So(match.Breakdown, ShouldHaveLength, 2)
				So(match.Breakdown[0].SkillName, ShouldEqual, "Python")
				So(match.Breakdown[0].Gap, ShouldAlmostEqual, 20.0, 1e-9)
				So(match.Breakdown[0].Met, ShouldBeFalse)
			})

			Convey("And the disqualifying skill is excluded from both sums", func() {
				// Only SQL remains: full ratio over its own weight.
				So(match.Compatibility, ShouldAlmostEqual, 100.0, 1e-9)
			})
		})

		Convey("When a mandatory skill sits between the floor and the benchmark", func() {
			match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
				"s-python": 60, "s-sql": 80,
			}), role, skills)

			Convey("Then it contributes its ratio without disqualifying", func() {
				So(match.Disqualified(), ShouldBeFalse)
				// (60/70*2 + 1*1) / 3 * 100
				So(match.Compatibility, ShouldAlmostEqual, 90.48, 0.01)
				So(match.MatchedSkills, ShouldEqual, 1)
			})
		})

		Convey("When a non-mandatory skill is below its benchmark", func() {
			match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
				"s-python": 90, "s-sql": 30,
			}), role, skills)

			Convey("Then it earns half credit on its ratio", func() {
				// (1*2 + 30/60*0.5*1) / 3 * 100
				So(match.Compatibility, ShouldAlmostEqual, 75.0, 1e-9)
			})
		})

		Convey("When a non-mandatory skill has no score at all", func() {
			match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
				"s-python": 90,
			}), role, skills)

			Convey("Then its weight still counts against the total", func() {
				// (1*2 + 0) / 3 * 100
				So(match.Compatibility, ShouldAlmostEqual, 66.67, 0.01)
			})
		})

		Convey("When a requirement carries an explicit minimum score", func() {
			role.Requirements[1].MinScore = 90
			match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
				"s-python": 90, "s-sql": 80,
			}), role, skills)

			Convey("Then it overrides the catalog benchmark", func() {
				So(match.MatchedSkills, ShouldEqual, 1)
				// (1*2 + 80/90*0.5*1) / 3 * 100
				So(match.Compatibility, ShouldAlmostEqual, 81.48, 0.01)
			})
		})

		Convey("When the role has no requirements", func() {
			match := engine.Compatibility("stu-1", nil, model.Role{ID: "r-empty"}, skills)
			So(match, ShouldBeNil)
		})

		Convey("When scores improve, compatibility never drops", func() {
			prev := -1.0
			for score := 0.0; score <= 100; score += 10 {
				match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
					"s-python": 90, "s-sql": score,
				}), role, skills)
				So(match.Compatibility, ShouldBeGreaterThanOrEqualTo, prev)
				prev = match.Compatibility
			}
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given matches with mixed compatibility", t, func() {
		engine := roles.New()
		matches := []*model.RoleMatch{
			{RoleID: "r-b", Compatibility: 80},
			{RoleID: "r-c", Compatibility: 95},
			{RoleID: "r-a", Compatibility: 80},
		}

		Convey("When ranked", func() {
			engine.Rank(matches)

			Convey("Then order is compatibility descending, role id breaking ties", func() {
				So(matches[0].RoleID, ShouldEqual, "r-c")
				So(matches[1].RoleID, ShouldEqual, "r-a")
				So(matches[2].RoleID, ShouldEqual, "r-b")
			})
		})
	})
}

func TestGaps(t *testing.T) {
	Convey("Given an engine and a role with several shortfalls", t, func() {
		engine := roles.New(roles.WithClock(fixedNow))
		role := model.Role{
			ID:    "r-ds",
			Title: "Data Scientist",
			Requirements: []model.RoleRequirement{
				{SkillID: "s-ml", Mandatory: true, Weight: 2.0},
				{SkillID: "s-python", Mandatory: false, Weight: 1.5},
				{SkillID: "s-sql", Mandatory: false, Weight: 1.0},
			},
		}
		match := engine.Compatibility("stu-1", scoresOf(map[string]float64{
			"s-ml": 40, "s-python": 50, "s-sql": 55,
		}), role, skillsByID())

		Convey("When the gap report is built", func() {
			report := engine.Gaps(match)

			Convey("Then gaps split by mandatory and sort largest first", func() {
				So(report.MandatoryGaps, ShouldHaveLength, 1)
				So(report.MandatoryGaps[0].SkillName, ShouldEqual, "Machine Learning")
				So(report.OptionalGaps, ShouldHaveLength, 2)
				So(report.OptionalGaps[0].SkillName, ShouldEqual, "Python")
				So(report.TotalGaps, ShouldEqual, 3)
			})

			Convey("Then recommendations grade by gap size, mandatory first", func() {
				So(report.Recommendations, ShouldHaveLength, 3)
				So(report.Recommendations[0], ShouldStartWith, "Priority: strengthen Machine Learning")
				So(report.Recommendations[1], ShouldStartWith, "Recommended: improve Python")
				So(report.Recommendations[2], ShouldStartWith, "Minor: polish SQL")
			})

			Convey("Then a disqualified match is never ready", func() {
				So(report.Ready, ShouldBeFalse)
			})
		})

		Convey("When the student clears everything", func() {
			full := engine.Compatibility("stu-1", scoresOf(map[string]float64{
				"s-ml": 80, "s-python": 75, "s-sql": 65,
			}), role, skillsByID())
			report := engine.Gaps(full)

			Convey("Then the report is clean and ready", func() {
				So(report.TotalGaps, ShouldEqual, 0)
				So(report.Recommendations, ShouldBeEmpty)
				So(report.Ready, ShouldBeTrue)
				So(report.Readiness, ShouldAlmostEqual, 100.0, 1e-9)
			})
		})
	})
}
