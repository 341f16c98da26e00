// Package config loads application configuration from environment variables
// and the YAML topics file that defines the keyword scoring model.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Topics validation errors.
var (
	ErrNoKeywords          = errors.New("at least one keyword is required")
	ErrNegativeWeight      = errors.New("keyword weights must be non-negative")
	ErrNoPositiveWeight    = errors.New("at least one keyword weight must be positive")
	ErrInvalidHorizon      = errors.New("scoring.horizon_hours must be positive")
	ErrInvalidGrace        = errors.New("scoring.grace_hours must be non-negative")
	ErrGraceExceedsHorizon = errors.New("scoring.grace_hours must be less than scoring.horizon_hours")
	ErrInvalidWindow       = errors.New("digest.window_hours must be positive")
	ErrThresholdOrder      = errors.New("digest.top_threshold must not be below digest.notable_threshold")
	ErrNegativeThreshold   = errors.New("digest thresholds must be non-negative")
)

// Config holds the full application configuration read from the environment.
type Config struct {
	Source SourceConfig
	Store  StoreConfig
	Digest DigestConfig
	Server ServerConfig

	// TopicsPath points at the YAML topics file loaded separately via
	// LoadTopics, once per cycle.
	TopicsPath string
}

// SourceConfig holds the news source endpoint parameters.
type SourceConfig struct {
	URL     string
	Timeout time.Duration
}

// StoreConfig holds the article store location.
type StoreConfig struct {
	Path string
}

// DigestConfig holds the digest output location.
type DigestConfig struct {
	OutputPath string
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns the full listen address (host:port).
func (c ServerConfig) Addr() string {
	return c.Host + c.Port
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Source: SourceConfig{
			URL:     envOr("WIRECLIP_SOURCE_URL", "https://www.reuters.com"),
			Timeout: time.Duration(envOrInt("WIRECLIP_FETCH_TIMEOUT_SEC", 10)) * time.Second,
		},
		Store: StoreConfig{
			Path: envOr("WIRECLIP_STORE_PATH", "data/articles.csv"),
		},
		Digest: DigestConfig{
			OutputPath: envOr("WIRECLIP_DIGEST_PATH", "daily_digest.html"),
		},
		Server: ServerConfig{
			Port: envOr("SERVER_PORT", ":8080"),
			Host: envOr("SERVER_HOST", ""),
		},
		TopicsPath: envOr("WIRECLIP_TOPICS_PATH", "topics.yaml"),
	}
}

// Topics is the keyword scoring model: keyword weights, the recency decay
// shape, and the digest window and tier thresholds. It is loaded once per
// cycle and immutable afterwards.
type Topics struct {
	Keywords map[string]float64 `yaml:"keywords"`
	Scoring  ScoringModel       `yaml:"scoring"`
	Digest   DigestModel        `yaml:"digest"`
}

// ScoringModel defines the recency decay: full weight inside the grace
// period, linear decay to zero at the horizon.
type ScoringModel struct {
	HorizonHours float64 `yaml:"horizon_hours"`
	GraceHours   float64 `yaml:"grace_hours"`
}

// DigestModel defines the digest window and score thresholds for the
// top/notable/other tiers.
type DigestModel struct {
	WindowHours      float64 `yaml:"window_hours"`
	TopThreshold     float64 `yaml:"top_threshold"`
	NotableThreshold float64 `yaml:"notable_threshold"`
}

// Horizon returns the decay horizon as a duration.
func (t *Topics) Horizon() time.Duration {
	return time.Duration(t.Scoring.HorizonHours * float64(time.Hour))
}

// Grace returns the no-decay grace period as a duration.
func (t *Topics) Grace() time.Duration {
	return time.Duration(t.Scoring.GraceHours * float64(time.Hour))
}

// Window returns the digest window as a duration.
func (t *Topics) Window() time.Duration {
	return time.Duration(t.Digest.WindowHours * float64(time.Hour))
}

// topicsFile mirrors Topics with pointer scalars so an explicit zero in the
// file is distinguishable from an omitted field.
type topicsFile struct {
	Keywords map[string]float64 `yaml:"keywords"`
	Scoring  struct {
		HorizonHours *float64 `yaml:"horizon_hours"`
		GraceHours   *float64 `yaml:"grace_hours"`
	} `yaml:"scoring"`
	Digest struct {
		WindowHours      *float64 `yaml:"window_hours"`
		TopThreshold     *float64 `yaml:"top_threshold"`
		NotableThreshold *float64 `yaml:"notable_threshold"`
	} `yaml:"digest"`
}

// LoadTopics reads and validates the topics file. Omitted scoring and digest
// fields get defaults (48h horizon, 1h grace, 24h window, 3.0/1.0 tier
// thresholds); an explicit zero is kept as written. Keywords have no default
// and must be present.
func LoadTopics(path string) (*Topics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read topics file: %w", err)
	}

	var f topicsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse topics file: %w", err)
	}

	t := Topics{
		Keywords: f.Keywords,
		Scoring: ScoringModel{
			HorizonHours: orDefault(f.Scoring.HorizonHours, 48),
			GraceHours:   orDefault(f.Scoring.GraceHours, 1),
		},
		Digest: DigestModel{
			WindowHours:      orDefault(f.Digest.WindowHours, 24),
			TopThreshold:     orDefault(f.Digest.TopThreshold, 3.0),
			NotableThreshold: orDefault(f.Digest.NotableThreshold, 1.0),
		},
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("config: topics validation: %w", err)
	}

	return &t, nil
}

func orDefault(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

// Validate checks the topics model for internal consistency.
func (t *Topics) Validate() error {
	if len(t.Keywords) == 0 {
		return ErrNoKeywords
	}

	anyPositive := false
	for kw, w := range t.Keywords {
		if w < 0 {
			return fmt.Errorf("%w: %q", ErrNegativeWeight, kw)
		}
		if w > 0 {
			anyPositive = true
		}
	}
	if !anyPositive {
		return ErrNoPositiveWeight
	}

	if t.Scoring.HorizonHours <= 0 {
		return ErrInvalidHorizon
	}
	if t.Scoring.GraceHours < 0 {
		return ErrInvalidGrace
	}
	if t.Scoring.GraceHours >= t.Scoring.HorizonHours {
		return ErrGraceExceedsHorizon
	}

	if t.Digest.WindowHours <= 0 {
		return ErrInvalidWindow
	}
	if t.Digest.TopThreshold < 0 || t.Digest.NotableThreshold < 0 {
		return ErrNegativeThreshold
	}
	if t.Digest.TopThreshold < t.Digest.NotableThreshold {
		return ErrThresholdOrder
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
