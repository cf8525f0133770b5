package rules

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/okian/skillscope/internal/domain/match"
	"github.com/okian/skillscope/internal/domain/model"
)

// Course mapping constants. Three independent strategies pool their output:
// code-prefix lookup, name keywords, and syllabus keywords.
const (
	codeConfidence       = 0.70
	nameConfidence       = 0.80
	syllabusConfidence   = 0.75
	syllabusContextChars = 80
)

var codePrefixRE = regexp.MustCompile(`^([a-z]+)`)

// CourseMapper maps course codes, names, and syllabi to skills via the
// curated keyword tables.
type CourseMapper struct {
	prefixes map[string][]string
	keywords map[string][]string
	// keywordOrder keeps map iteration deterministic.
	keywordOrder []string
	index        *skillIndex
}

// NewCourseMapper builds a mapper over the given tables and skill catalog.
func NewCourseMapper(tables *Tables, vocab []model.Skill) *CourseMapper {
	order := make([]string, 0, len(tables.CourseKeywords))
	for kw := range tables.CourseKeywords {
		order = append(order, kw)
	}
	sort.Strings(order)

	return &CourseMapper{
		prefixes:     tables.CoursePrefixes,
		keywords:     tables.CourseKeywords,
		keywordOrder: order,
		index:        newSkillIndex(vocab),
	}
}

// Map pools the three strategies and deduplicates by skill, keeping the
// highest-confidence instance.
func (m *CourseMapper) Map(_ context.Context, code, name, syllabus string) ([]model.SkillMatch, error) {
	var matches []model.SkillMatch
	if code != "" {
		matches = append(matches, m.byCode(code)...)
	}
	if name != "" {
		matches = append(matches, m.byName(name)...)
	}
	if syllabus != "" {
		matches = append(matches, m.bySyllabus(syllabus)...)
	}
	return dedupe(matches), nil
}

// byCode maps the letter prefix of a course code (e.g. "CS101" -> "cs") to
// a discipline skill set at fixed confidence.
func (m *CourseMapper) byCode(code string) []model.SkillMatch {
	prefix := codePrefixRE.FindString(strings.ToLower(code))
	if prefix == "" {
		return nil
	}
	names, ok := m.prefixes[prefix]
	if !ok {
		return nil
	}

	var matches []model.SkillMatch
	for _, name := range names {
		skill, found := m.index.lookup(name)
		if !found {
			continue
		}
		matches = append(matches, model.SkillMatch{
			SkillID:    skill.ID,
			SkillName:  skill.Name,
			Confidence: codeConfidence,
			Source:     model.SourceCourse,
			MatchType:  model.MatchCode,
			Snippet:    "Course Code: " + code,
		})
	}
	return matches
}

func (m *CourseMapper) byName(name string) []model.SkillMatch {
	lower := strings.ToLower(name)

	var matches []model.SkillMatch
	for _, kw := range m.keywordOrder {
		if !strings.Contains(lower, kw) {
			continue
		}
		for _, skillName := range m.keywords[kw] {
			skill, found := m.index.lookup(skillName)
			if !found {
				continue
			}
			matches = append(matches, model.SkillMatch{
				SkillID:    skill.ID,
				SkillName:  skill.Name,
				Confidence: nameConfidence,
				Source:     model.SourceCourse,
				MatchType:  model.MatchKeyword,
				Snippet:    "Course: " + name,
			})
		}
	}
	return matches
}

func (m *CourseMapper) bySyllabus(syllabus string) []model.SkillMatch {
	lower := strings.ToLower(syllabus)

	var matches []model.SkillMatch
	for _, kw := range m.keywordOrder {
		if !strings.Contains(lower, kw) {
			continue
		}
		for _, skillName := range m.keywords[kw] {
			skill, found := m.index.lookup(skillName)
			if !found {
				continue
			}
			matches = append(matches, model.SkillMatch{
				SkillID:    skill.ID,
				SkillName:  skill.Name,
				Confidence: syllabusConfidence,
				Source:     model.SourceCourse,
				MatchType:  model.MatchSyllabus,
				Snippet:    match.Snippet(syllabus, kw, syllabusContextChars),
			})
		}
	}
	return matches
}
