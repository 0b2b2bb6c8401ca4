// Package config loads jobmail settings from .env, an optional YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/daviddao/jobmail/internal/classify"
	"github.com/daviddao/jobmail/internal/resolve"
)

// FileName is the config file looked up beside the database.
const FileName = "config.yaml"

// Config is the full set of settings.
type Config struct {
	DBPath string `yaml:"db_path"`

	Gmail struct {
		Credentials  string   `yaml:"credentials"`
		Token        string   `yaml:"token"`
		User         string   `yaml:"user"`
		MaxResults   int64    `yaml:"max_results"`
		LookbackDays int      `yaml:"lookback_days"`
		Queries      []string `yaml:"queries"`
	} `yaml:"gmail"`

	Poll struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"poll"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Pipeline struct {
		OfferWeight           float64 `yaml:"offer_weight"`
		ConfirmationWeight    float64 `yaml:"confirmation_weight"`
		ConfidenceDenominator float64 `yaml:"confidence_denominator"`
		UpdateConfidence      float64 `yaml:"update_confidence"`
		RejectionDominates    *bool   `yaml:"rejection_dominates"`
		SimilarityThreshold   float64 `yaml:"similarity_threshold"`
	} `yaml:"pipeline"`
}

// Default returns a config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadDotenv loads .env files into the environment. Missing files are ignored
// and variables already set win.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(b))), cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Discover returns the config file beside dbPath, or "" if there is none.
func Discover(dbPath string) string {
	if dbPath == "" {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(dbPath), FileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Validate checks ranges that would make the tracker misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Poll.IntervalSeconds < 60 {
		errs = append(errs, fmt.Errorf("poll.interval_seconds should be at least 60 to avoid rate limits (got %d)", c.Poll.IntervalSeconds))
	}
	if t := c.Pipeline.SimilarityThreshold; t < 0 || t > 100 {
		errs = append(errs, fmt.Errorf("pipeline.similarity_threshold must be within 0-100 (got %g)", t))
	}
	if c.Pipeline.OfferWeight <= 0 || c.Pipeline.ConfirmationWeight <= 0 {
		errs = append(errs, errors.New("pipeline weights must be positive"))
	}
	if c.Pipeline.ConfidenceDenominator <= 0 {
		errs = append(errs, errors.New("pipeline.confidence_denominator must be positive"))
	}
	if c.Gmail.MaxResults <= 0 {
		errs = append(errs, errors.New("gmail.max_results must be positive"))
	}
	return errors.Join(errs...)
}

// ClassifyOptions converts the pipeline section for the classifier.
func (c *Config) ClassifyOptions() classify.Options {
	return classify.Options{
		OfferWeight:           c.Pipeline.OfferWeight,
		ConfirmationWeight:    c.Pipeline.ConfirmationWeight,
		ConfidenceDenominator: c.Pipeline.ConfidenceDenominator,
		UpdateConfidence:      c.Pipeline.UpdateConfidence,
		RejectionDominates:    c.Pipeline.RejectionDominates == nil || *c.Pipeline.RejectionDominates,
	}
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"GOOGLE_CLIENT_SECRET_PATH": &c.Gmail.Credentials,
		"GOOGLE_TOKEN_PATH":         &c.Gmail.Token,
		"GMAIL_USER":                &c.Gmail.User,
		"DB_PATH":                   &c.DBPath,
		"LOG_LEVEL":                 &c.Log.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL_SECONDS: %w", err)
		}
		c.Poll.IntervalSeconds = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Gmail.Credentials == "" {
		c.Gmail.Credentials = "credentials.json"
	}
	if c.Gmail.Token == "" {
		c.Gmail.Token = "token.json"
	}
	if c.Gmail.User == "" {
		c.Gmail.User = "me"
	}
	if c.Gmail.MaxResults == 0 {
		c.Gmail.MaxResults = 100
	}
	if c.Gmail.LookbackDays == 0 {
		c.Gmail.LookbackDays = 30
	}
	if c.Poll.IntervalSeconds == 0 {
		c.Poll.IntervalSeconds = 120
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Pipeline.OfferWeight == 0 {
		c.Pipeline.OfferWeight = classify.DefaultOfferWeight
	}
	if c.Pipeline.ConfirmationWeight == 0 {
		c.Pipeline.ConfirmationWeight = classify.DefaultConfirmationWeight
	}
	if c.Pipeline.ConfidenceDenominator == 0 {
		c.Pipeline.ConfidenceDenominator = classify.DefaultConfidenceDenominator
	}
	if c.Pipeline.UpdateConfidence == 0 {
		c.Pipeline.UpdateConfidence = classify.DefaultUpdateConfidence
	}
	if c.Pipeline.SimilarityThreshold == 0 {
		c.Pipeline.SimilarityThreshold = resolve.DefaultThreshold
	}
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with its value, leaving unset variables as written.
func expandEnvVars(content string) string {
	return envVarRe.ReplaceAllStringFunc(content, func(match string) string {
		if v := os.Getenv(match[2 : len(match)-1]); v != "" {
			return v
		}
		return match
	})
}
