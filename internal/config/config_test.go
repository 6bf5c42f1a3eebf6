package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/autofill/internal/fill"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUTOFILL_BROWSER_URL", "AUTOFILL_PROFILE", "AUTOFILL_LOCALE", "AUTOFILL_OPT_OUT_ATTR",
		"AUTOFILL_RECORD", "AUTOFILL_HEADLESS", "AUTOFILL_SWEEPS", "AUTOFILL_SEED",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autofill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.NoError(t, cfg.Validate())
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
browser:
  headless: false
  width: 1024
  browser_url: ws://127.0.0.1:9222/devtools/browser/abc
  timeout: 45s
fill:
  sweeps: 3
  combobox_timeout: 500ms
  locale: de-DE
  seed: 99
record:
  output: run.gif
verbose: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1024, cfg.Browser.Width)
	assert.Equal(t, 900, cfg.Browser.Height, "unset keys keep their default")
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/abc", cfg.Browser.URL)
	assert.Equal(t, 45*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, 3, cfg.Fill.Sweeps)
	assert.Equal(t, 500*time.Millisecond, cfg.Fill.ComboboxTimeout)
	assert.Equal(t, "de-DE", cfg.Fill.Locale)
	assert.Equal(t, uint64(99), cfg.Fill.Seed)
	assert.Equal(t, fill.DefaultOptOutAttr, cfg.Fill.OptOutAttr)
	assert.Equal(t, "run.gif", cfg.Record.Output)
	assert.Equal(t, 10, cfg.Record.FPS)
	assert.True(t, cfg.Verbose)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "fill: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "fill:\n  sweeps: 3\n  locale: de-DE\n")
	t.Setenv("AUTOFILL_SWEEPS", "7")
	t.Setenv("AUTOFILL_LOCALE", "ja-JP")
	t.Setenv("AUTOFILL_HEADLESS", "false")
	t.Setenv("AUTOFILL_SEED", "12")
	t.Setenv("AUTOFILL_OPT_OUT_ATTR", "data-skip")
	t.Setenv("AUTOFILL_RECORD", "out.gif")
	t.Setenv("AUTOFILL_PROFILE", "/tmp/profile")
	t.Setenv("AUTOFILL_BROWSER_URL", "http://127.0.0.1:9222")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Fill.Sweeps)
	assert.Equal(t, "ja-JP", cfg.Fill.Locale)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, uint64(12), cfg.Fill.Seed)
	assert.Equal(t, "data-skip", cfg.Fill.OptOutAttr)
	assert.Equal(t, "out.gif", cfg.Record.Output)
	assert.Equal(t, "/tmp/profile", cfg.Browser.Profile)
	assert.Equal(t, "http://127.0.0.1:9222", cfg.Browser.URL)
}

func TestEnvRejectsMalformedValues(t *testing.T) {
	for key, val := range map[string]string{
		"AUTOFILL_SWEEPS":   "many",
		"AUTOFILL_HEADLESS": "sometimes",
		"AUTOFILL_SEED":     "-1",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load("")
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero sweeps", func(c *Config) { c.Fill.Sweeps = 0 }, "sweeps must be at least 1"},
		{"no combobox timeout", func(c *Config) { c.Fill.ComboboxTimeout = 0 }, "combobox_timeout"},
		{"opt out not data attr", func(c *Config) { c.Fill.OptOutAttr = "class" }, "data-*"},
		{"empty viewport", func(c *Config) { c.Browser.Width = 0 }, "viewport"},
		{"recording without fps", func(c *Config) { c.Record.Output = "a.gif"; c.Record.FPS = 0 }, "fps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Fill.Sweeps = 2
	cfg.Fill.ComboboxTimeout = time.Second

	ec := cfg.EngineConfig()
	assert.Equal(t, 2, ec.MaxSweeps)
	assert.Equal(t, fill.DefaultOptOutAttr, ec.OptOutAttr)
	assert.Equal(t, fill.DefaultSubmitSelector, ec.SubmitSelector)
	assert.Equal(t, time.Second, ec.Filler.ComboboxTimeout)
}
