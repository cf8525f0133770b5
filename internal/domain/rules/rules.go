// Package rules maps structured short-form inputs (certification titles,
// course codes/names/syllabi) to skills via curated pattern tables. The
// tables ship as embedded YAML and may be overridden from a file, so rule
// curation never requires a rebuild.
package rules

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/okian/skillscope/internal/domain/model"
)

//go:embed tables.yaml
var defaultTables []byte

// CertRule maps a certification-title pattern to a set of skill names.
type CertRule struct {
	Pattern    string   `koanf:"pattern"`
	Skills     []string `koanf:"skills"`
	Confidence float64  `koanf:"confidence"`
}

// Tables holds all curated mapping data.
type Tables struct {
	Certifications     []CertRule          `koanf:"certifications"`
	ReputableProviders []string            `koanf:"reputable_providers"`
	CoursePrefixes     map[string][]string `koanf:"course_code_prefixes"`
	CourseKeywords     map[string][]string `koanf:"course_keywords"`
}

// LoadTables parses the embedded tables and, when overridePath is not
// empty, layers the override file on top.
func LoadTables(overridePath string) (*Tables, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultTables), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTables, err)
	}
	if overridePath != "" {
		if err := k.Load(file.Provider(overridePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadTables, err)
		}
	}

	var t Tables
	if err := k.UnmarshalWithConf("", &t, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTables, err)
	}
	if len(t.Certifications) == 0 {
		return nil, fmt.Errorf("%w: no certification rules", ErrLoadTables)
	}
	return &t, nil
}

// skillIndex resolves rule skill names against the catalog. Exact
// case-insensitive name match wins; otherwise the first catalog skill whose
// name contains the rule name is used.
type skillIndex struct {
	vocab []model.Skill
	exact map[string]model.Skill

	mu    sync.Mutex
	cache map[string]*model.Skill
}

func newSkillIndex(vocab []model.Skill) *skillIndex {
	idx := &skillIndex{
		vocab: vocab,
		exact: make(map[string]model.Skill, len(vocab)),
		cache: make(map[string]*model.Skill),
	}
	for _, s := range vocab {
		idx.exact[strings.ToLower(s.Name)] = s
	}
	return idx
}

func (idx *skillIndex) lookup(name string) (model.Skill, bool) {
	lower := strings.ToLower(name)
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if cached, ok := idx.cache[lower]; ok {
		if cached == nil {
			return model.Skill{}, false
		}
		return *cached, true
	}
	if s, ok := idx.exact[lower]; ok {
		idx.cache[lower] = &s
		return s, true
	}
	for _, s := range idx.vocab {
		if strings.Contains(strings.ToLower(s.Name), lower) {
			skill := s
			idx.cache[lower] = &skill
			return skill, true
		}
	}
	idx.cache[lower] = nil
	return model.Skill{}, false
}

// dedupe keeps the highest-confidence match per skill, preserving first-seen
// order for distinct skills.
func dedupe(matches []model.SkillMatch) []model.SkillMatch {
	best := make(map[string]int, len(matches))
	out := make([]model.SkillMatch, 0, len(matches))
	for _, m := range matches {
		if i, ok := best[m.SkillID]; ok {
			if m.Confidence > out[i].Confidence {
				out[i] = m
			}
			continue
		}
		best[m.SkillID] = len(out)
		out = append(out, m)
	}
	return out
}
