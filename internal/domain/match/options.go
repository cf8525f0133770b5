package match

import (
	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/internal/domain/textnorm"
	"github.com/okian/skillscope/pkg/logger"
)

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithEmbedder sets the semantic embedding provider. A nil embedder leaves
// semantic matching disabled.
func WithEmbedder(e Embedder) Option {
	return func(m *Matcher) {
		m.embedder = e
	}
}

// WithNormalizer sets a custom text normalizer.
func WithNormalizer(n *textnorm.Normalizer) Option {
	return func(m *Matcher) {
		if n != nil {
			m.norm = n
		}
	}
}

// WithLogger sets a custom logger for the matcher.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.log = l
		}
	}
}

// WithFuzzyThreshold sets the minimum normalized partial-ratio similarity.
func WithFuzzyThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.fuzzyThreshold = t
		}
	}
}

// WithSemanticThreshold sets the minimum cosine similarity.
func WithSemanticThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.semanticThreshold = t
		}
	}
}

// WithMinConfidence sets the default acceptance threshold for matches.
func WithMinConfidence(t float64) Option {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.minConfidence = t
		}
	}
}

// WithSourceWeights replaces the per-source confidence multipliers.
func WithSourceWeights(weights map[model.SourceKind]float64, defaultWeight float64) Option {
	return func(m *Matcher) {
		if len(weights) > 0 {
			m.sourceWeights = make(map[model.SourceKind]float64, len(weights))
			for k, w := range weights {
				if w > 0 {
					m.sourceWeights[k] = w
				}
			}
		}
		if defaultWeight > 0 {
			m.defaultSourceWeight = defaultWeight
		}
	}
}

// CallOption adjusts a single Match call.
type CallOption func(*callConfig)

type callConfig struct {
	minConfidence float64
	splitBullets  bool
}

// WithThreshold overrides the acceptance threshold for one call.
func WithThreshold(t float64) CallOption {
	return func(c *callConfig) {
		if t > 0 && t <= 1 {
			c.minConfidence = t
		}
	}
}

// WithBulletSplit matches each bullet of the input independently, so a
// skill mentioned in several bullets yields one match per bullet.
func WithBulletSplit() CallOption {
	return func(c *callConfig) {
		c.splitBullets = true
	}
}
