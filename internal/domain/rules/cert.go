package rules

import (
	"context"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/okian/skillscope/internal/domain/model"
)

// Certification mapping constants.
const (
	certSimilarityThreshold = 85   // partial-ratio percent
	certMinConfidence       = 0.75 // default acceptance threshold
	providerBoost           = 1.05
)

// CertMapper maps certification titles to skills by fuzzy-matching against
// the curated pattern table. Independent of the semantic matcher.
type CertMapper struct {
	rules     []CertRule
	providers []string
	index     *skillIndex

	minConfidence float64
}

// CertOption applies a configuration option to the CertMapper.
type CertOption func(*CertMapper)

// WithCertMinConfidence sets the acceptance threshold for mapped skills.
func WithCertMinConfidence(t float64) CertOption {
	return func(m *CertMapper) {
		if t > 0 && t <= 1 {
			m.minConfidence = t
		}
	}
}

// NewCertMapper builds a mapper over the given tables and skill catalog.
func NewCertMapper(tables *Tables, vocab []model.Skill, opts ...CertOption) *CertMapper {
	m := &CertMapper{
		rules:         tables.Certifications,
		providers:     tables.ReputableProviders,
		index:         newSkillIndex(vocab),
		minConfidence: certMinConfidence,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map returns the skills a certification title implies, deduplicated by
// skill with the highest confidence retained.
func (m *CertMapper) Map(_ context.Context, title, provider string) ([]model.SkillMatch, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	titleLower := strings.ToLower(title)
	reputable := m.reputableProvider(provider)

	var matches []model.SkillMatch
	for _, rule := range m.rules {
		similarity := fuzzy.PartialRatio(rule.Pattern, titleLower)
		if similarity < certSimilarityThreshold {
			continue
		}

		confidence := rule.Confidence * float64(similarity) / 100.0
		if reputable {
			confidence *= providerBoost
			if confidence > 1.0 {
				confidence = 1.0
			}
		}
		if confidence < m.minConfidence {
			continue
		}

		for _, name := range rule.Skills {
			skill, ok := m.index.lookup(name)
			if !ok {
				continue
			}
			matches = append(matches, model.SkillMatch{
				SkillID:    skill.ID,
				SkillName:  skill.Name,
				Confidence: confidence,
				Source:     model.SourceCertification,
				MatchType:  model.MatchCertRule,
				Snippet:    "Certification: " + title,
			})
		}
	}
	return dedupe(matches), nil
}

func (m *CertMapper) reputableProvider(provider string) bool {
	if provider == "" {
		return false
	}
	lower := strings.ToLower(provider)
	for _, p := range m.providers {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
