// Package textnorm cleans and tokenizes free text before skill matching.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	urlRE        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailRE      = regexp.MustCompile(`\S+@\S+`)
	// Keep + # . - / which carry meaning in technical terms ("C++", "C#", ".NET").
	specialRE    = regexp.MustCompile(`[^a-z0-9\s+#./-]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	// Unicode bullets, ASCII bullets, and numbered-list markers.
	bulletRE = regexp.MustCompile(`[\x{2022}\x{25CF}\x{25CB}\x{25E6}\x{25AA}\x{25AB}\x{25A0}\x{25A1}]|^\s*[-*+]\s|\n\s*[-*+]\s|\d+\.\s`)
)

// defaultTechTerms are short technical acronyms that generic stop-word
// lists would otherwise discard.
var defaultTechTerms = []string{
	"ai", "ml", "ui", "ux", "api", "sql", "aws", "gcp",
	"ios", "css", "html", "xml", "json", "rest", "c", "r",
}

// defaultStopWords is a compact English stop-word list. Tokens on this list
// are dropped unless protected as technical terms.
var defaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "been", "but", "by", "can",
	"could", "did", "do", "does", "for", "from", "had", "has", "have", "he",
	"her", "here", "him", "his", "how", "i", "if", "in", "into", "is", "it",
	"its", "me", "my", "no", "not", "of", "on", "or", "our", "she", "so",
	"such", "than", "that", "the", "their", "them", "then", "there", "these",
	"they", "this", "to", "too", "up", "us", "was", "we", "were", "what",
	"when", "where", "which", "while", "who", "why", "will", "with", "would",
	"you", "your",
}

// Result holds the output of a full normalization pass.
type Result struct {
	Original       string
	Cleaned        string
	Tokens         []string
	FilteredTokens []string
	// Units is the list of independently matchable text units: one per
	// bullet when bullet splitting is requested, otherwise the whole
	// cleaned text.
	Units []string
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithTechTerms replaces the protected technical-acronym allow-list.
func WithTechTerms(terms []string) Option {
	return func(n *Normalizer) {
		if len(terms) == 0 {
			return
		}
		n.techTerms = make(map[string]struct{}, len(terms))
		for _, t := range terms {
			n.techTerms[strings.ToLower(t)] = struct{}{}
		}
	}
}

// WithStopWords replaces the stop-word list.
func WithStopWords(words []string) Option {
	return func(n *Normalizer) {
		if len(words) == 0 {
			return
		}
		n.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			n.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// Normalizer cleans and tokenizes text. Safe for concurrent use once built.
type Normalizer struct {
	techTerms map[string]struct{}
	stopWords map[string]struct{}
}

// New creates a Normalizer with default term lists.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	WithTechTerms(defaultTechTerms)(n)
	WithStopWords(defaultStopWords)(n)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Clean lowercases text, strips URLs and email addresses, removes
// punctuation outside the protected set, and collapses whitespace.
func (n *Normalizer) Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = urlRE.ReplaceAllString(text, "")
	text = emailRE.ReplaceAllString(text, "")
	text = specialRE.ReplaceAllString(text, " ")
	text = whitespaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Tokenize splits cleaned text into word tokens.
func (n *Normalizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// RemoveStopWords filters stop words while keeping protected technical terms.
func (n *Normalizer) RemoveStopWords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if _, tech := n.techTerms[lower]; tech {
			filtered = append(filtered, tok)
			continue
		}
		if _, stop := n.stopWords[lower]; !stop {
			filtered = append(filtered, tok)
		}
	}
	return filtered
}

// Bullets splits text on bullet markers, one unit per bullet. Returns the
// whole text as a single unit when no markers are present.
func (n *Normalizer) Bullets(text string) []string {
	parts := bulletRE.Split(text, -1)
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			units = append(units, p)
		}
	}
	if len(units) <= 1 {
		return []string{text}
	}
	return units
}

// Normalize runs the full pipeline. Bullet splitting happens on the raw
// text so unicode markers survive; each unit is then cleaned independently.
func (n *Normalizer) Normalize(text string, splitBullets bool) Result {
	res := Result{Original: text, Cleaned: n.Clean(text)}

	raw := []string{text}
	if splitBullets {
		raw = n.Bullets(text)
	}
	for _, unit := range raw {
		if cleaned := n.Clean(unit); cleaned != "" {
			res.Units = append(res.Units, cleaned)
		}
	}

	res.Tokens = n.Tokenize(res.Cleaned)
	res.FilteredTokens = n.RemoveStopWords(res.Tokens)
	return res
}
