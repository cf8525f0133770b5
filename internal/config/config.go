// Package config defines engine configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus listen address, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// SQLitePath is the SQLite DSN. Empty selects the in-memory store.
	SQLitePath string `koanf:"sqlite_path"`

	// QueueSize bounds the in-memory recompute queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers. Zero means CPU-scaled.
	WorkerCount int `koanf:"worker_count"`

	// RuleTablesPath optionally overrides the embedded mapping tables.
	RuleTablesPath string `koanf:"rule_tables_path"`

	// Extraction thresholds, all in [0,1].
	FuzzyThreshold    float64 `koanf:"fuzzy_threshold"`
	SemanticThreshold float64 `koanf:"semantic_threshold"`
	MinConfidence     float64 `koanf:"min_confidence"`

	// SourceMultipliers discounts extraction confidence per source kind.
	SourceMultipliers map[string]float64 `koanf:"source_multipliers"`

	// Credibility weights evidence per source kind during aggregation.
	Credibility map[string]float64 `koanf:"credibility"`

	// Time decay policy.
	DecayWindowMonths float64 `koanf:"decay_window_months"`
	DecayLoss         float64 `koanf:"decay_loss"`
	DecayFloor        float64 `koanf:"decay_floor"`

	// Role matching knobs.
	MandatoryFloor     float64 `koanf:"mandatory_floor"`
	PartialCredit      float64 `koanf:"partial_credit"`
	ReadinessThreshold float64 `koanf:"readiness_threshold"`
	MinCompatibility   float64 `koanf:"min_compatibility"`
	MatchLimit         int     `koanf:"match_limit"`

	// Embedding backend. An empty API key disables semantic matching.
	EmbeddingModel string `koanf:"embedding_model"`
	GeminiAPIKey   string `koanf:"gemini_api_key"`
}

// New creates a Config with engine defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		MetricsAddr:        ":9090",
		SQLitePath:         "",
		QueueSize:          10_000,
		WorkerCount:        0,
		FuzzyThreshold:     0.90,
		SemanticThreshold:  0.70,
		MinConfidence:      0.60,
		DecayWindowMonths:  24,
		DecayLoss:          0.30,
		DecayFloor:         0.70,
		MandatoryFloor:     0.80,
		PartialCredit:      0.50,
		ReadinessThreshold: 70,
		MinCompatibility:   60,
		MatchLimit:         10,
		EmbeddingModel:     "gemini-embedding-001",
	}
}
