package match

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyVocabulary = errors.New("empty skill vocabulary")
	ErrEmbedding       = errors.New("embedding unavailable")
)
