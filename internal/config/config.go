// Package config loads service settings from the environment.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent; never overrides
//     variables already set in the environment).
//  2. Process envconfig struct tags to populate the Config struct.
//  3. Validate tagged constraints with go-playground/validator.
//  4. Parse and validate the derived analysis window and region.
//
// Earthdata credentials are deliberately not required here: a missing
// credential is an acquisition failure that the report handler converts into
// the simulated fallback, not a startup error.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port            string        `envconfig:"PORT" default:"5000" validate:"required,numeric"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Earthdata access. Credentials may be empty; authentication then fails
	// at request time and the handler serves the simulated report.
	EarthdataUsername string        `envconfig:"EARTHDATA_USERNAME"`
	EarthdataPassword string        `envconfig:"EARTHDATA_PASSWORD"`
	EarthdataTimeout  time.Duration `envconfig:"EARTHDATA_TIMEOUT" default:"30s" validate:"gt=0"`
	CMRBaseURL        string        `envconfig:"CMR_BASE_URL" default:"https://cmr.earthdata.nasa.gov" validate:"url"`
	URSBaseURL        string        `envconfig:"URS_BASE_URL" default:"https://urs.earthdata.nasa.gov" validate:"url"`

	// Granule acquisition.
	GranuleCacheDir  string `envconfig:"GRANULE_CACHE_DIR" default:"granule_data"`
	GranuleShortName string `envconfig:"GRANULE_SHORT_NAME" default:"OMNO2d"`

	// Analysis window and region (defaults: California, Sep 2025).
	AnalysisStart string  `envconfig:"ANALYSIS_START" default:"2025-09-01"`
	AnalysisEnd   string  `envconfig:"ANALYSIS_END" default:"2025-10-01"`
	RegionWest    float64 `envconfig:"REGION_WEST" default:"-124.48"`
	RegionSouth   float64 `envconfig:"REGION_SOUTH" default:"32.53"`
	RegionEast    float64 `envconfig:"REGION_EAST" default:"-114.13"`
	RegionNorth   float64 `envconfig:"REGION_NORTH" default:"42.01"`

	HighRiskThreshold float64 `envconfig:"HIGH_RISK_THRESHOLD" default:"1.6e-9" validate:"gt=0"`

	// Optional report event publishing; disabled when no brokers are set.
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaReportTopic string   `envconfig:"KAFKA_REPORT_TOPIC" default:"air-quality-reports"`

	// Window is parsed from AnalysisStart/AnalysisEnd during Load.
	Window domain.TimeRange `ignored:"true"`
}

// Load reads configuration from the environment, applying defaults where
// unset, and validates the result.
func Load() (*Config, error) {
	// Silently succeeds when no .env file exists; does not override
	// variables already present in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	start, err := time.Parse("2006-01-02", cfg.AnalysisStart)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_START: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.AnalysisEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_END: %w", err)
	}
	cfg.Window = domain.TimeRange{Start: start, End: end}
	if err := cfg.Window.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Region().Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// HTTPAddr returns the listen address for the web server.
func (c *Config) HTTPAddr() string {
	return ":" + c.Port
}

// Region returns the analysis bounding box.
func (c *Config) Region() domain.Region {
	return domain.Region{
		West:  c.RegionWest,
		South: c.RegionSouth,
		East:  c.RegionEast,
		North: c.RegionNorth,
	}
}

// KafkaEnabled reports whether report event publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
