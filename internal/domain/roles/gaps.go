package roles

import (
	"fmt"
	"sort"

	"github.com/okian/skillscope/internal/domain/model"
)

const maxRecommendations = 5

// Recommendation urgency cutoffs, in score points of gap.
const (
	priorityGap    = 30.0
	recommendedGap = 15.0
)

// Gaps turns a role match into a gap report: which skills fall short, split
// by whether they are mandatory, with the largest shortfalls first.
func (e *Engine) Gaps(match *model.RoleMatch) *model.GapReport {
	report := &model.GapReport{
		RoleID:    match.RoleID,
		RoleTitle: match.RoleTitle,
		Readiness: match.Compatibility,
		Ready:     match.Compatibility >= e.readiness && !match.Disqualified(),
	}

	for _, row := range match.Breakdown {
		if row.Gap <= 0 {
			continue
		}
		if row.Mandatory {
			report.MandatoryGaps = append(report.MandatoryGaps, row)
		} else {
			report.OptionalGaps = append(report.OptionalGaps, row)
		}
	}
	sortByGap(report.MandatoryGaps)
	sortByGap(report.OptionalGaps)
	report.TotalGaps = len(report.MandatoryGaps) + len(report.OptionalGaps)
	report.Recommendations = e.recommend(report)
	return report
}

// recommend produces up to maxRecommendations action items, mandatory gaps
// first, biggest shortfall first.
func (e *Engine) recommend(report *model.GapReport) []string {
	var recs []string
	for _, rows := range [][]model.SkillBreakdown{report.MandatoryGaps, report.OptionalGaps} {
		for _, row := range rows {
			if len(recs) >= maxRecommendations {
				return recs
			}
			recs = append(recs, recommendation(row))
		}
	}
	return recs
}

func recommendation(row model.SkillBreakdown) string {
	switch {
	case row.Gap >= priorityGap:
		return fmt.Sprintf("Priority: strengthen %s from %.0f to %.0f", row.SkillName, row.StudentScore, row.RequiredScore)
	case row.Gap >= recommendedGap:
		return fmt.Sprintf("Recommended: improve %s from %.0f to %.0f", row.SkillName, row.StudentScore, row.RequiredScore)
	default:
		return fmt.Sprintf("Minor: polish %s to close a %.0f point gap", row.SkillName, row.Gap)
	}
}

func sortByGap(rows []model.SkillBreakdown) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Gap > rows[j].Gap
	})
}
