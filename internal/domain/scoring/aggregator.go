// Package scoring turns heterogeneous evidence into per-skill scores:
// the collector normalizes source records into Evidence, the aggregator
// combines all Evidence for a (student, skill) pair into one
// credibility-weighted, time-decayed score in [0,100].
package scoring

import (
	"time"

	"github.com/okian/skillscope/internal/domain/model"
)

// Default aggregation constants.
const (
	defaultUnknownCredibility = 0.50
	defaultDecayWindowMonths  = 24.0
	defaultDecayLoss          = 0.30
	defaultDecayFloor         = 0.70
	maxScore                  = 100.0
	daysPerMonth              = 30.0
)

// defaultCredibility weights evidence by how trustworthy its source kind is
// as a skill signal.
var defaultCredibility = map[model.SourceKind]float64{
	model.SourceCertification: 1.00,
	model.SourceInternship:    0.95,
	model.SourceProject:       0.85,
	model.SourceAssessment:    0.80,
	model.SourceCourse:        0.70,
}

// AggregatorOption applies a configuration option to the Aggregator.
type AggregatorOption func(*Aggregator)

// WithCredibility replaces the per-source credibility weights.
func WithCredibility(weights map[model.SourceKind]float64, unknown float64) AggregatorOption {
	return func(a *Aggregator) {
		if len(weights) > 0 {
			a.credibility = make(map[model.SourceKind]float64, len(weights))
			for k, w := range weights {
				if w > 0 {
					a.credibility[k] = w
				}
			}
		}
		if unknown > 0 {
			a.unknownCredibility = unknown
		}
	}
}

// WithDecay tunes the linear time-decay policy.
func WithDecay(windowMonths, loss, floor float64) AggregatorOption {
	return func(a *Aggregator) {
		if windowMonths > 0 {
			a.decayWindowMonths = windowMonths
		}
		if loss > 0 && loss < 1 {
			a.decayLoss = loss
		}
		if floor > 0 && floor <= 1 {
			a.decayFloor = floor
		}
	}
}

// WithAggregatorClock overrides the time source, for deterministic tests.
func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator combines evidence into per-skill scores. Stateless apart from
// its configuration; safe for concurrent use.
type Aggregator struct {
	credibility        map[model.SourceKind]float64
	unknownCredibility float64
	decayWindowMonths  float64
	decayLoss          float64
	decayFloor         float64
	now                func() time.Time
}

// NewAggregator creates an Aggregator with default weights and decay.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		credibility:        defaultCredibility,
		unknownCredibility: defaultUnknownCredibility,
		decayWindowMonths:  defaultDecayWindowMonths,
		decayLoss:          defaultDecayLoss,
		decayFloor:         defaultDecayFloor,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TimeDecay returns the age multiplier for a piece of evidence: linear in
// age, losing at most decayLoss over the window and floored there, so
// evidence never fully expires. A zero date decays nothing.
func (a *Aggregator) TimeDecay(date time.Time) float64 {
	if date.IsZero() {
		return 1.0
	}
	ageMonths := a.now().Sub(date).Hours() / 24.0 / daysPerMonth
	if ageMonths < 0 {
		ageMonths = 0
	}
	decay := 1.0 - (ageMonths/a.decayWindowMonths)*a.decayLoss
	if decay < a.decayFloor {
		return a.decayFloor
	}
	return decay
}

// Credibility returns the weight for a source kind.
func (a *Aggregator) Credibility(source model.SourceKind) float64 {
	if w, ok := a.credibility[source]; ok {
		return w
	}
	return a.unknownCredibility
}

// Aggregate computes one score per skill from the evidence stream.
// Idempotent: the same evidence always yields the same scores.
func (a *Aggregator) Aggregate(studentID string, evidence []model.Evidence) map[string]model.SkillScore {
	bySkill := make(map[string][]model.Evidence)
	for _, e := range evidence {
		bySkill[e.SkillID] = append(bySkill[e.SkillID], e)
	}

	computed := a.now()
	scores := make(map[string]model.SkillScore, len(bySkill))
	for skillID, items := range bySkill {
		var totalScore, totalWeight float64
		for _, e := range items {
			credibility := a.Credibility(e.Source)
			totalScore += e.Confidence * maxScore * credibility * a.TimeDecay(e.Date)
			totalWeight += credibility
		}

		score := 0.0
		if totalWeight > 0 {
			score = totalScore / totalWeight
		}
		if score > maxScore {
			score = maxScore
		}
		scores[skillID] = model.SkillScore{
			StudentID:     studentID,
			SkillID:       skillID,
			SkillName:     items[0].SkillName,
			Score:         score,
			EvidenceCount: len(items),
			LastComputed:  computed,
		}
	}
	return scores
}
