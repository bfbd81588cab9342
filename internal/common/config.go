package common

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/navcast/internal/models"
)

// Config holds all configuration for navcast
type Config struct {
	Environment string              `toml:"environment"`
	Server      ServerConfig        `toml:"server"`
	Storage     StorageConfig       `toml:"storage"`
	Clients     ClientsConfig       `toml:"clients"`
	Estimation  EstimationConfig    `toml:"estimation"`
	Scheduler   SchedulerConfig     `toml:"scheduler"`
	Logging     LoggingConfig       `toml:"logging"`
	Funds       []models.FundConfig `toml:"funds"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the BadgerHold data directory.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Tefas TefasConfig `toml:"tefas"`
	Yahoo YahooConfig `toml:"yahoo"`
}

// TefasConfig holds the official price source configuration
type TefasConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *TefasConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 5*time.Second)
}

// YahooConfig holds the quote source configuration
type YahooConfig struct {
	BaseURL   string        `toml:"base_url"`
	RateLimit int           `toml:"rate_limit"`
	Timeout   string        `toml:"timeout"`
	Interval  string        `toml:"interval"`
	Range     string        `toml:"range"`
	Breaker   BreakerConfig `toml:"breaker"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 5*time.Second)
}

// BreakerConfig configures the circuit breaker in front of the quote source.
type BreakerConfig struct {
	MaxRequests uint32 `toml:"max_requests"`
	Interval    string `toml:"interval"`
	Timeout     string `toml:"timeout"`
}

// GetInterval returns the window after which failure counts reset.
func (c *BreakerConfig) GetInterval() time.Duration {
	return parseDurationOr(c.Interval, 30*time.Second)
}

// GetTimeout returns how long the breaker stays open.
func (c *BreakerConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 60*time.Second)
}

// EstimationConfig holds defaults shared by every fund.
type EstimationConfig struct {
	ScanWindowDays  int     `toml:"scan_window_days"`
	StopOnFirstHit  bool    `toml:"stop_on_first_hit"`
	FXSymbol        string  `toml:"fx_symbol"`
	WeightTolerance float64 `toml:"weight_tolerance"` // percentage points of drift before a warning
	Timezone        string  `toml:"timezone"`
}

// ScanPolicy returns the configured backward-scan policy.
func (c *EstimationConfig) ScanPolicy() models.ScanPolicy {
	p := models.DefaultScanPolicy()
	if c.ScanWindowDays > 0 {
		p.WindowDays = c.ScanWindowDays
	}
	p.StopOnFirstHit = c.StopOnFirstHit
	return p
}

// Location returns the market calendar timezone, falling back to a fixed
// UTC+3 zone when tzdata is unavailable (e.g. minimal container).
func (c *EstimationConfig) Location() *time.Location {
	name := c.Timezone
	if name == "" {
		name = "Europe/Istanbul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("TRT", 3*60*60)
	}
	return loc
}

// SchedulerConfig holds the periodic re-estimation schedule.
type SchedulerConfig struct {
	Schedule string `toml:"schedule"` // cron expression, empty disables the scheduler
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/navcast",
		},
		Clients: ClientsConfig{
			Tefas: TefasConfig{
				BaseURL:   "https://www.tefas.gov.tr/api/DB",
				RateLimit: 5,
				Timeout:   "5s",
			},
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com/v8/finance",
				RateLimit: 10,
				Timeout:   "5s",
				Interval:  "1m",
				Range:     "1d",
				Breaker: BreakerConfig{
					MaxRequests: 3,
					Interval:    "30s",
					Timeout:     "60s",
				},
			},
		},
		Estimation: EstimationConfig{
			ScanWindowDays:  7,
			StopOnFirstHit:  true,
			FXSymbol:        "USDTRY=X",
			WeightTolerance: 0.5,
			Timezone:        "Europe/Istanbul",
		},
		Scheduler: SchedulerConfig{
			Schedule: "*/5 10-18 * * 1-5",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Fund definitions are validated before the config is returned.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := ValidateFunds(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NAVCAST_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("NAVCAST_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("NAVCAST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("NAVCAST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("NAVCAST_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if schedule, ok := os.LookupEnv("NAVCAST_SCHEDULE"); ok {
		config.Scheduler.Schedule = schedule
	}

	if fx := os.Getenv("NAVCAST_FX_SYMBOL"); fx != "" {
		config.Estimation.FXSymbol = fx
	}
}

// ValidateFunds normalises fund definitions in place: codes are upper-cased,
// weight modes defaulted, dynamic totals computed and return strategies
// resolved. Structural problems are returned as an error; weight drift is
// only recorded as a warning on the fund.
func ValidateFunds(config *Config) error {
	seen := make(map[string]bool, len(config.Funds))

	for i := range config.Funds {
		f := &config.Funds[i]
		f.Code = strings.ToUpper(strings.TrimSpace(f.Code))
		f.Warnings = nil

		if f.Code == "" {
			return fmt.Errorf("fund #%d: code is required", i+1)
		}
		if seen[f.Code] {
			return fmt.Errorf("fund %s: duplicate code", f.Code)
		}
		seen[f.Code] = true

		if f.ScanWindowDays < 0 {
			return fmt.Errorf("fund %s: scan_window_days must not be negative", f.Code)
		}

		for j, h := range f.Holdings {
			if strings.TrimSpace(h.Symbol) == "" {
				return fmt.Errorf("fund %s: holding #%d has no symbol", f.Code, j+1)
			}
			if h.Weight < 0 || math.IsNaN(h.Weight) {
				return fmt.Errorf("fund %s: holding %s has invalid weight %v", f.Code, h.Symbol, h.Weight)
			}
		}
		for _, fc := range f.Fixed {
			if fc.Weight < 0 || math.IsNaN(fc.Weight) {
				return fmt.Errorf("fund %s: fixed component %q has invalid weight %v", f.Code, fc.Name, fc.Weight)
			}
		}

		switch f.WeightMode {
		case "", models.WeightModeFixed:
			f.WeightMode = models.WeightModeFixed
			if f.TotalWeight == 0 {
				f.TotalWeight = 100
			}
		case models.WeightModeDynamic:
			f.TotalWeight = f.DeclaredWeight()
		default:
			return fmt.Errorf("fund %s: unknown weight_mode %q (supported: fixed, dynamic)", f.Code, f.WeightMode)
		}

		if f.TotalWeight <= 0 || math.IsNaN(f.TotalWeight) {
			return fmt.Errorf("fund %s: total weight must be positive, got %v", f.Code, f.TotalWeight)
		}

		if drift := f.DeclaredWeight() - f.TotalWeight; math.Abs(drift) > config.Estimation.WeightTolerance {
			f.Warnings = append(f.Warnings, fmt.Sprintf("declared weights sum to %.2f, total weight is %.2f (drift %+.2f)",
				f.DeclaredWeight(), f.TotalWeight, drift))
		}

		fx := f.FXSymbol
		if fx == "" {
			fx = config.Estimation.FXSymbol
		}
		for j := range f.Holdings {
			h := &f.Holdings[j]
			if h.IsForeignCurrency {
				h.Strategy = models.ReturnStrategy{Kind: models.StrategyCurrencyAdjusted, FXSymbol: fx}
			} else {
				h.Strategy = models.ReturnStrategy{Kind: models.StrategyDirect}
			}
		}
	}

	return nil
}

// FindFund returns the fund with the given code (case-insensitive).
func (c *Config) FindFund(code string) (*models.FundConfig, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i := range c.Funds {
		if c.Funds[i].Code == code {
			return &c.Funds[i], true
		}
	}
	return nil, false
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
