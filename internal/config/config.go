// Package config loads autofill settings from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/v0xg/autofill/internal/fill"
)

// Config holds every tunable of one autofill execution
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Fill    FillConfig    `yaml:"fill"`
	Record  RecordConfig  `yaml:"record"`
	Verbose bool          `yaml:"verbose"`
}

// BrowserConfig configures how the page is opened
type BrowserConfig struct {
	Headless bool   `yaml:"headless"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Profile  string `yaml:"profile"`     // Chrome/Chromium user data dir
	URL      string `yaml:"browser_url"` // attach to a running browser instead of launching
	// Timeout bounds navigation and the initial wait for the page to settle
	Timeout     time.Duration `yaml:"timeout"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	KeepOpen    bool          `yaml:"keep_open"`
}

// FillConfig configures the fill engine
type FillConfig struct {
	Sweeps          int           `yaml:"sweeps"`
	ComboboxTimeout time.Duration `yaml:"combobox_timeout"`
	Locale          string        `yaml:"locale"`
	Seed            uint64        `yaml:"seed"`
	OptOutAttr      string        `yaml:"opt_out_attr"`
	SubmitSelector  string        `yaml:"submit_selector"`
}

// RecordConfig configures the optional GIF recording of a run
type RecordConfig struct {
	Output   string `yaml:"output"` // empty disables recording
	FPS      int    `yaml:"fps"`
	MaxWidth uint   `yaml:"max_width"`
	NoCursor bool   `yaml:"no_cursor"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:    true,
			Width:       1280,
			Height:      900,
			Timeout:     30 * time.Second,
			SettleDelay: 150 * time.Millisecond,
		},
		Fill: FillConfig{
			Sweeps:          fill.DefaultMaxSweeps,
			ComboboxTimeout: 2 * time.Second,
			OptOutAttr:      fill.DefaultOptOutAttr,
			SubmitSelector:  fill.DefaultSubmitSelector,
		},
		Record: RecordConfig{
			FPS:      10,
			MaxWidth: 800,
		},
	}
}

// Load reads path on top of the defaults, then applies AUTOFILL_* variables.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("AUTOFILL_BROWSER_URL"); v != "" {
		c.Browser.URL = v
	}
	if v := os.Getenv("AUTOFILL_PROFILE"); v != "" {
		c.Browser.Profile = v
	}
	if v := os.Getenv("AUTOFILL_LOCALE"); v != "" {
		c.Fill.Locale = v
	}
	if v := os.Getenv("AUTOFILL_OPT_OUT_ATTR"); v != "" {
		c.Fill.OptOutAttr = v
	}
	if v := os.Getenv("AUTOFILL_RECORD"); v != "" {
		c.Record.Output = v
	}
	if v := os.Getenv("AUTOFILL_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTOFILL_HEADLESS: %w", err)
		}
		c.Browser.Headless = b
	}
	if v := os.Getenv("AUTOFILL_SWEEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTOFILL_SWEEPS: %w", err)
		}
		c.Fill.Sweeps = n
	}
	if v := os.Getenv("AUTOFILL_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AUTOFILL_SEED: %w", err)
		}
		c.Fill.Seed = n
	}
	return nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	var problems []string
	if c.Fill.Sweeps < 1 {
		problems = append(problems, fmt.Sprintf("sweeps must be at least 1 (got %d)", c.Fill.Sweeps))
	}
	if c.Fill.ComboboxTimeout <= 0 {
		problems = append(problems, "combobox_timeout must be positive")
	}
	if !strings.HasPrefix(strings.ToLower(c.Fill.OptOutAttr), "data-") {
		problems = append(problems, fmt.Sprintf("opt_out_attr must be a data-* attribute (got %q)", c.Fill.OptOutAttr))
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		problems = append(problems, "viewport width and height must be positive")
	}
	if c.Record.Output != "" && c.Record.FPS <= 0 {
		problems = append(problems, "record fps must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EngineConfig translates the fill settings for fill.NewEngine
func (c *Config) EngineConfig() fill.Config {
	return fill.Config{
		MaxSweeps:      c.Fill.Sweeps,
		OptOutAttr:     c.Fill.OptOutAttr,
		SubmitSelector: c.Fill.SubmitSelector,
		Filler: fill.FillerOptions{
			ComboboxTimeout: c.Fill.ComboboxTimeout,
		},
	}
}
