package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const signup = `<form>
	<input id="email" type="email">
	<input id="token" type="hidden" value="abc">
	<input id="nick" value="kept">
	<select id="plan"><option value="">Choose</option><option>pro</option></select>
	<button type="submit">Send</button>
</form>`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"AUTOFILL_SWEEPS", "AUTOFILL_SEED", "AUTOFILL_LOCALE", "AUTOFILL_OPT_OUT_ATTR"} {
		t.Setenv(key, "")
	}
	configPath, verbose = "", false

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writePage(t *testing.T, page string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "autofill dev\n", out)
}

func TestPlanListsDecisions(t *testing.T) {
	out, _, err := execute(t, "plan", writePage(t, signup))
	require.NoError(t, err)

	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "#email")
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "skip: hidden input")
	assert.Contains(t, out, "skip: already has a value")
	assert.Contains(t, out, "select")
}

func TestPlanWithoutControls(t *testing.T) {
	out, _, err := execute(t, "plan", writePage(t, `<p>nothing here</p>`))
	require.NoError(t, err)
	assert.Contains(t, out, "No form controls found")
}

func TestPlanApplyToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "filled.html")

	out, _, err := execute(t, "plan", writePage(t, signup), "--apply", "-o", dest, "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved to")

	filled, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Regexp(t, `id="email" type="email" value="[^"@]+@[^"]+"`, string(filled))
	assert.Contains(t, string(filled), `value="kept"`)
	assert.Contains(t, string(filled), `<option selected="">pro</option>`)
}

func TestPlanApplyToStdout(t *testing.T) {
	out, errOut, err := execute(t, "plan", writePage(t, signup), "--apply")
	require.NoError(t, err)

	assert.Contains(t, out, "<html>")
	assert.NotContains(t, out, "CATEGORY")
	assert.Contains(t, errOut, "CATEGORY")
}

func TestPlanRejectsInvalidConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "autofill.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("fill:\n  sweeps: 0\n"), 0o644))

	_, _, err := execute(t, "plan", writePage(t, signup), "--config", cfg)
	assert.ErrorContains(t, err, "sweeps must be at least 1")
}

func TestPlanMissingFile(t *testing.T) {
	_, _, err := execute(t, "plan", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestResolveLocale(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_TIME", "")
	t.Setenv("LANG", "de_DE.UTF-8")
	prev := logger
	logger = zap.NewNop()
	t.Cleanup(func() { logger = prev })

	page := func(lang string, err error) func() (string, error) {
		return func() (string, error) { return lang, err }
	}

	tests := []struct {
		name     string
		tag      string
		language func() (string, error)
		want     string
	}{
		{"configured wins over page", "fr-FR", page("en-US", nil), "fr-FR"},
		{"page language", "", page("en-US", nil), "en-US"},
		{"page language error", "", page("", errors.New("detached")), "de-DE"},
		{"page language empty", "", page("", nil), "de-DE"},
		{"static document", "", nil, "de-DE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveLocale(tt.tag, tt.language).String())
		})
	}
}
