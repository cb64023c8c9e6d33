package model

import "time"

// Config holds every tunable of estatescout
type Config struct {
	Eligibility  EligibilityConfig `yaml:"eligibility" mapstructure:"eligibility"`
	Documents    DocumentConfig    `yaml:"documents" mapstructure:"documents"`
	Quality      QualityConfig     `yaml:"quality" mapstructure:"quality"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Pacing       PacingConfig      `yaml:"pacing" mapstructure:"pacing"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Sink         SinkConfig        `yaml:"sink" mapstructure:"sink"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
}

// EligibilityConfig drives the listing scan
type EligibilityConfig struct {
	MinEstateAgeYears          int      `yaml:"min_estate_age_years" mapstructure:"min_estate_age_years"`
	RequiredDispositionMarkers []string `yaml:"required_disposition_markers" mapstructure:"required_disposition_markers"` // All must be present
	ExcludedStatusMarkers      []string `yaml:"excluded_status_markers" mapstructure:"excluded_status_markers"`           // Any one disqualifies
	LookaheadLines             int      `yaml:"lookahead_lines" mapstructure:"lookahead_lines"`                           // Context window, including the case line
}

// DocumentConfig tunes the document priority pass
type DocumentConfig struct {
	PriorityKeywords []string `yaml:"priority_keywords" mapstructure:"priority_keywords"`
	SkipKeywords     []string `yaml:"skip_keywords" mapstructure:"skip_keywords"`
}

// QualityConfig sets when an extraction is flagged for manual review
type QualityConfig struct {
	ReviewThreshold int `yaml:"review_threshold" mapstructure:"review_threshold"`
}

// HTTPConfig configures live page fetches
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	AllowedHosts  []string      `yaml:"allowed_hosts" mapstructure:"allowed_hosts"` // Empty allows any host
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// PacingConfig holds the randomized delay ranges used by the driver
type PacingConfig struct {
	Enabled        bool     `yaml:"enabled" mapstructure:"enabled"`
	Reading        Interval `yaml:"reading" mapstructure:"reading"`
	Thinking       Interval `yaml:"thinking" mapstructure:"thinking"`
	BeforeClick    Interval `yaml:"before_click" mapstructure:"before_click"`
	BetweenCases   Interval `yaml:"between_cases" mapstructure:"between_cases"`
	ScrollInterval Interval `yaml:"scroll_interval" mapstructure:"scroll_interval"`
}

// Interval is an inclusive duration range
type Interval struct {
	Min time.Duration `yaml:"min" mapstructure:"min"`
	Max time.Duration `yaml:"max" mapstructure:"max"`
}

// RateLimitConfig limits requests per portal host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// SinkConfig selects where extracted cases are delivered
type SinkConfig struct {
	Kind         string `yaml:"kind" mapstructure:"kind"` // "directory", "native", "upload", "nats", "" (none)
	Dir          string `yaml:"dir" mapstructure:"dir"`
	UploadURL    string `yaml:"upload_url,omitempty" mapstructure:"upload_url"`
	UploadAPIKey string `yaml:"-" mapstructure:"upload_api_key"` // Prefer ESTATESCOUT_SINK_UPLOAD_API_KEY
	NATSURL      string `yaml:"nats_url,omitempty" mapstructure:"nats_url"`
	NATSSubject  string `yaml:"nats_subject,omitempty" mapstructure:"nats_subject"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Eligibility: DefaultEligibilityConfig(),
		Documents:   DefaultDocumentConfig(),
		Quality: QualityConfig{
			ReviewThreshold: 30,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) estatescout/0.3",
			MaxBodyBytes:  4_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".estatescout-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Pacing: PacingConfig{
			Enabled:        true,
			Reading:        Interval{Min: 2 * time.Second, Max: 8 * time.Second},
			Thinking:       Interval{Min: 1500 * time.Millisecond, Max: 5 * time.Second},
			BeforeClick:    Interval{Min: 300 * time.Millisecond, Max: 1200 * time.Millisecond},
			BetweenCases:   Interval{Min: 5 * time.Second, Max: 15 * time.Second},
			ScrollInterval: Interval{Min: 800 * time.Millisecond, Max: 1500 * time.Millisecond},
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 0.5,
			BurstSize:         1,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Sink: SinkConfig{
			Dir:         "./estates",
			NATSSubject: "estates.cases",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultEligibilityConfig returns the listing scan defaults
func DefaultEligibilityConfig() EligibilityConfig {
	return EligibilityConfig{
		MinEstateAgeYears:          2,
		RequiredDispositionMarkers: []string{"Disposed", "Clerk of Superior Court"},
		ExcludedStatusMarkers:      []string{"Pending"},
		LookaheadLines:             5,
	}
}

// DefaultDocumentConfig returns the document keyword lists
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		PriorityKeywords: []string{
			"application", "petition", "letters", "inventory",
			"final account", "will", "death certificate",
			"oath", "bond", "acceptance", "renunciation",
		},
		SkipKeywords: []string{
			"notice of hearing", "order", "receipt", "certificate of service",
			"motion", "affidavit of service", "alias", "summons",
		},
	}
}
