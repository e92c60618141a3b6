// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendBigQuery = "bigquery"
)

// PDF extractors.
const (
	ExtractorText   = "text"
	ExtractorGemini = "gemini"
)

// Statement line formats, tried in the configured order.
const (
	LineFormatMarker = "dmy-marker"
	LineFormatSigned = "signed-amount"
)

// Config holds every setting read from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	StorageBackend  string
	GCPProject      string
	BigQueryDataset string
	GCSBucket       string

	GeminiModel    string
	PDFExtractor   string
	PDFLineFormats []string

	JWTSecret     string
	DefaultUserID string

	ImportWorkers       int
	MaxUploadBytes      int64
	FiscalMonthStartDay int
	SeedDefaultRules    bool
}

// Load reads .env files when present, then the environment. Variables
// already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:            getenv("PORT", "8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		StorageBackend:  strings.ToLower(getenv("STORAGE_BACKEND", BackendMemory)),
		GCPProject:      os.Getenv("GCP_PROJECT"),
		BigQueryDataset: getenv("BIGQUERY_DATASET", "spendwise"),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		PDFExtractor:    strings.ToLower(getenv("PDF_EXTRACTOR", ExtractorText)),
		PDFLineFormats:  getlist("PDF_LINE_FORMATS", LineFormatMarker),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		DefaultUserID:   getenv("DEFAULT_USER_ID", "default-user"),
	}

	var err error
	if cfg.ImportWorkers, err = getint("IMPORT_WORKERS", 4); err != nil {
		return Config{}, err
	}
	maxUpload, err := getint("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.FiscalMonthStartDay, err = getint("FISCAL_MONTH_START_DAY", 1); err != nil {
		return Config{}, err
	}
	if cfg.SeedDefaultRules, err = getbool("SEED_DEFAULT_RULES", true); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings are consistent.
func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendBigQuery:
		if c.GCPProject == "" {
			return errors.New("GCP_PROJECT is required for the bigquery backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.PDFExtractor != ExtractorText && c.PDFExtractor != ExtractorGemini {
		return fmt.Errorf("unknown PDF_EXTRACTOR %q", c.PDFExtractor)
	}
	if len(c.PDFLineFormats) == 0 {
		return errors.New("PDF_LINE_FORMATS must name at least one format")
	}
	for _, f := range c.PDFLineFormats {
		if f != LineFormatMarker && f != LineFormatSigned {
			return fmt.Errorf("unknown PDF_LINE_FORMATS entry %q", f)
		}
	}
	if c.ImportWorkers < 1 {
		return fmt.Errorf("IMPORT_WORKERS must be positive, got %d", c.ImportWorkers)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.FiscalMonthStartDay < 1 || c.FiscalMonthStartDay > 31 {
		return fmt.Errorf("FISCAL_MONTH_START_DAY must be between 1 and 31, got %d", c.FiscalMonthStartDay)
	}
	return nil
}

// AuthEnabled reports whether bearer tokens are required.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getbool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getlist(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getenv(key, fallback), ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
