// Package roles computes role compatibility from aggregated skill scores:
// weighted matching against per-skill benchmarks, mandatory-skill
// disqualification, ranking, and gap analysis.
package roles

import (
	"math"
	"sort"
	"time"

	"github.com/okian/skillscope/internal/domain/model"
)

// Default matching constants.
const (
	// defaultMandatoryFloor is the fraction of a mandatory skill's required
	// score below which the role is disqualified outright.
	defaultMandatoryFloor = 0.80
	// defaultPartialCredit discounts non-mandatory skills scored below
	// their requirement.
	defaultPartialCredit = 0.50
	defaultReadiness     = 70.0
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMandatoryFloor sets the disqualification floor as a fraction of the
// required score.
func WithMandatoryFloor(floor float64) Option {
	return func(e *Engine) {
		if floor > 0 && floor <= 1 {
			e.mandatoryFloor = floor
		}
	}
}

// WithPartialCredit sets the discount applied to non-mandatory skills
// scored below their requirement.
func WithPartialCredit(credit float64) Option {
	return func(e *Engine) {
		if credit >= 0 && credit <= 1 {
			e.partialCredit = credit
		}
	}
}

// WithReadinessThreshold sets the compatibility bar for a "ready" verdict
// in gap reports.
func WithReadinessThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 && threshold <= 100 {
			e.readiness = threshold
		}
	}
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine scores students against roles. Stateless apart from its
// configuration; safe for concurrent use.
type Engine struct {
	mandatoryFloor float64
	partialCredit  float64
	readiness      float64
	now            func() time.Time
}

// New creates an Engine with default thresholds.
func New(opts ...Option) *Engine {
	e := &Engine{
		mandatoryFloor: defaultMandatoryFloor,
		partialCredit:  defaultPartialCredit,
		readiness:      defaultReadiness,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compatibility scores one student against one role. Returns nil when the
// role has no requirements. The breakdown is computed for every requirement
// even when the role ends up disqualified, so gap analysis always has the
// full picture; a disqualifying skill contributes to neither the score nor
// the weight total.
func (e *Engine) Compatibility(studentID string, scores map[string]model.SkillScore, role model.Role, skills map[string]model.Skill) *model.RoleMatch {
	if len(role.Requirements) == 0 {
		return nil
	}

	match := &model.RoleMatch{
		StudentID:     studentID,
		RoleID:        role.ID,
		RoleTitle:     role.Title,
		TotalRequired: len(role.Requirements),
		ComputedAt:    e.now(),
	}

	var total, totalWeight float64
	for _, req := range role.Requirements {
		skill, ok := skills[req.SkillID]
		required := req.MinScore
		if required <= 0 {
			required = skill.BenchmarkScore
		}

		var studentScore float64
		if s, found := scores[req.SkillID]; found {
			studentScore = s.Score
		}

		met := studentScore >= required
		if met {
			match.MatchedSkills++
		}
		match.Breakdown = append(match.Breakdown, model.SkillBreakdown{
			SkillID:       req.SkillID,
			SkillName:     skill.Name,
			StudentScore:  studentScore,
			RequiredScore: required,
			Gap:           math.Max(0, required-studentScore),
			Mandatory:     req.Mandatory,
			Met:           met,
		})

		if req.Mandatory && studentScore < e.mandatoryFloor*required {
			name := skill.Name
			if !ok {
				name = req.SkillID
			}
			match.MissingMandatory = append(match.MissingMandatory, name)
			continue
		}

		ratio := 0.0
		if required > 0 {
			ratio = math.Min(studentScore/required, 1.0)
		}
		if !req.Mandatory && studentScore > 0 && studentScore < required {
			ratio *= e.partialCredit
		}
		total += ratio * req.Weight
		totalWeight += req.Weight
	}

	if totalWeight > 0 {
		match.Compatibility = round2(total / totalWeight * 100.0)
	}
	return match
}

// Rank orders matches by compatibility descending, breaking ties by role id
// ascending so results are stable across runs.
func (e *Engine) Rank(matches []*model.RoleMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Compatibility != matches[j].Compatibility {
			return matches[i].Compatibility > matches[j].Compatibility
		}
		return matches[i].RoleID < matches[j].RoleID
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
