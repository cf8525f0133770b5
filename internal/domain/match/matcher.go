// Package match finds skills in free text using three ordered strategies:
// exact word-boundary matching, fuzzy partial-ratio matching, and semantic
// embedding similarity.
package match

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/internal/domain/textnorm"
	"github.com/okian/skillscope/pkg/logger"
)

// Default matching configuration constants.
const (
	defaultFuzzyThreshold    = 0.90
	defaultSemanticThreshold = 0.70
	defaultMinConfidence     = 0.60
	fuzzyDiscount            = 0.95
	semanticDiscount         = 0.85
	snippetContextChars      = 100
)

// defaultSourceWeights discount extraction confidence by how strong a skill
// signal each source kind is.
var defaultSourceWeights = map[model.SourceKind]float64{
	model.SourceCertification: 1.0,
	model.SourceInternship:    0.95,
	model.SourceProject:       0.90,
	model.SourceResume:        0.85,
	model.SourceCourse:        0.75,
}

// Matcher matches text against a fixed skill vocabulary. The vocabulary
// regexes are built eagerly; embeddings are computed once, on first use,
// and shared read-only across concurrent calls.
type Matcher struct {
	vocab []model.Skill
	norm  *textnorm.Normalizer
	log   logger.Logger

	embedder            Embedder
	fuzzyThreshold      float64
	semanticThreshold   float64
	minConfidence       float64
	sourceWeights       map[model.SourceKind]float64
	defaultSourceWeight float64

	exactRE []*regexp.Regexp

	vocabOnce sync.Once
	vocabVecs [][]float32
	vocabErr  error
	warnOnce  sync.Once
}

// New creates a Matcher over the given skill vocabulary.
func New(vocab []model.Skill, opts ...Option) (*Matcher, error) {
	if len(vocab) == 0 {
		return nil, ErrEmptyVocabulary
	}
	m := &Matcher{
		vocab:               vocab,
		norm:                textnorm.New(),
		fuzzyThreshold:      defaultFuzzyThreshold,
		semanticThreshold:   defaultSemanticThreshold,
		minConfidence:       defaultMinConfidence,
		sourceWeights:       defaultSourceWeights,
		defaultSourceWeight: 0.8,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.exactRE = make([]*regexp.Regexp, len(vocab))
	for i, s := range vocab {
		m.exactRE[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(s.Name)) + `\b`)
	}
	return m, nil
}

// Warm precomputes vocabulary embeddings so the first request does not pay
// the model-load cost. Safe to skip; Match warms lazily.
func (m *Matcher) Warm(ctx context.Context) error {
	if m.embedder == nil {
		return ErrEmbedding
	}
	m.embedVocab(ctx)
	return m.vocabErr
}

// Match returns confidence-ranked skill matches for the text, highest first.
func (m *Matcher) Match(ctx context.Context, text string, source model.SourceKind, opts ...CallOption) ([]model.SkillMatch, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	call := callConfig{minConfidence: m.minConfidence}
	for _, opt := range opts {
		opt(&call)
	}

	res := m.norm.Normalize(text, call.splitBullets)
	if len(res.Units) == 0 {
		return nil, nil
	}

	unitVecs := m.embedUnits(ctx, res.Units)

	sourceWeight, ok := m.sourceWeights[source]
	if !ok {
		sourceWeight = m.defaultSourceWeight
	}

	var matches []model.SkillMatch
	for u, unit := range res.Units {
		for i, skill := range m.vocab {
			exact := m.exactScore(i, unit)
			fuzzyScore := m.fuzzyScore(skill.Name, unit)
			semantic := m.semanticScore(i, unitVecs, u)

			var confidence float64
			var matchType string
			switch {
			case exact > 0:
				confidence, matchType = 1.0, model.MatchExact
			case fuzzyScore > semantic && fuzzyScore > 0:
				confidence, matchType = fuzzyScore*fuzzyDiscount, model.MatchFuzzy
			case semantic > 0:
				confidence, matchType = semantic*semanticDiscount, model.MatchSemantic
			default:
				continue
			}

			confidence *= sourceWeight
			if confidence < call.minConfidence {
				continue
			}
			matches = append(matches, model.SkillMatch{
				SkillID:    skill.ID,
				SkillName:  skill.Name,
				Confidence: confidence,
				Source:     source,
				MatchType:  matchType,
				Snippet:    Snippet(text, skill.Name, snippetContextChars),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches, nil
}

// exactScore reports a whole-word occurrence of the skill name.
func (m *Matcher) exactScore(skillIdx int, unit string) float64 {
	if m.exactRE[skillIdx].MatchString(unit) {
		return 1.0
	}
	return 0
}

// fuzzyScore returns the normalized partial ratio, gated at the threshold.
func (m *Matcher) fuzzyScore(skillName, unit string) float64 {
	score := float64(fuzzy.PartialRatio(strings.ToLower(skillName), unit)) / 100.0
	if score >= m.fuzzyThreshold {
		return score
	}
	return 0
}

// semanticScore returns cosine similarity against the cached vocabulary
// embedding, gated at the threshold. Zero whenever semantic matching is
// degraded.
func (m *Matcher) semanticScore(skillIdx int, unitVecs [][]float32, unitIdx int) float64 {
	if unitVecs == nil || m.vocabVecs == nil {
		return 0
	}
	sim := cosine(unitVecs[unitIdx], m.vocabVecs[skillIdx])
	if sim >= m.semanticThreshold {
		return sim
	}
	return 0
}

// embedVocab populates the vocabulary embedding cache exactly once. Skill
// vectors embed name plus description.
func (m *Matcher) embedVocab(ctx context.Context) {
	m.vocabOnce.Do(func() {
		texts := make([]string, len(m.vocab))
		for i, s := range m.vocab {
			texts[i] = strings.TrimSpace(s.Name + " " + s.Description)
		}
		vecs, err := m.embedder.Embed(ctx, texts)
		if err != nil || len(vecs) != len(m.vocab) {
			m.vocabErr = ErrEmbedding
			m.degradedWarn(ctx, err)
			return
		}
		m.vocabVecs = vecs
	})
}

// embedUnits embeds the input units for one call. Any failure degrades
// semantic matching to a no-op for this call instead of failing extraction.
func (m *Matcher) embedUnits(ctx context.Context, units []string) [][]float32 {
	if m.embedder == nil {
		return nil
	}
	m.embedVocab(ctx)
	if m.vocabErr != nil || m.vocabVecs == nil {
		return nil
	}
	vecs, err := m.embedder.Embed(ctx, units)
	if err != nil || len(vecs) != len(units) {
		m.degradedWarn(ctx, err)
		return nil
	}
	return vecs
}

func (m *Matcher) degradedWarn(ctx context.Context, err error) {
	m.warnOnce.Do(func() {
		if m.log != nil {
			m.log.Warn(ctx, "semantic matching degraded to no-op", logger.Error(err))
		}
	})
}

// Snippet extracts a window of the original text centered on the first
// occurrence of needle, or the leading contextChars characters when the
// needle never literally occurs (fuzzy and semantic matches).
func Snippet(text, needle string, contextChars int) string {
	lowerText := strings.ToLower(text)
	pos := strings.Index(lowerText, strings.ToLower(needle))
	if pos == -1 {
		if len(text) <= contextChars {
			return text
		}
		return text[:contextChars] + "..."
	}

	start := pos - contextChars/2
	if start < 0 {
		start = 0
	}
	end := pos + len(needle) + contextChars/2
	if end > len(text) {
		end = len(text)
	}

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}
