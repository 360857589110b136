package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/scanpdf/internal/scanerr"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SCANPDF_DPI", "")
	t.Setenv("SCANPDF_BLANK_THRESHOLD", "")
	t.Setenv("SCANPDF_FACE_UP", "")
	t.Setenv("SCANPDF_BLANK_METHOD", "")

	cfg := FromEnv()
	assert.Equal(t, 300, cfg.Job.DPI)
	assert.Equal(t, 0.97, cfg.Job.BlankThreshold)
	assert.True(t, cfg.Job.FaceUp)
	assert.Equal(t, BlankStdDev, cfg.Job.BlankMethod)
	assert.Equal(t, 85, cfg.Job.ColorQuality)
	assert.Equal(t, 5*time.Minute, cfg.Job.ToolTimeout)
	assert.Equal(t, "convert", cfg.Tools.Convert)
	assert.Equal(t, "dev_scanpdf", cfg.Axiom.Dataset)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SCANPDF_DPI", "600")
	t.Setenv("SCANPDF_FACE_UP", "false")
	t.Setenv("SCANPDF_TOOL_TIMEOUT", "30s")
	t.Setenv("SCANBD_DEVICE", "net:localhost:fujitsu")
	t.Setenv("SCANPDF_WORKERS", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, 600, cfg.Job.DPI)
	assert.False(t, cfg.Job.FaceUp)
	assert.Equal(t, 30*time.Second, cfg.Job.ToolTimeout)
	assert.Equal(t, "net:localhost:fujitsu", cfg.Job.Device)
	assert.Greater(t, cfg.Job.Workers, 0)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("SCANPDF_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SCANPDF_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), p))
	assert.Equal(t, "loaded", os.Getenv("SCANPDF_TEST_DOTENV"))
}

func validJob() JobConfig {
	return JobConfig{Finish: true, DPI: 300, BlankThreshold: 0.97, BlankMethod: BlankStdDev, ColorQuality: 85, Workers: 2}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validJob().Validate())

	cases := map[string]func(*JobConfig){
		"nothing to do":   func(c *JobConfig) { c.Finish = false },
		"dpi":             func(c *JobConfig) { c.DPI = 0 },
		"threshold high":  func(c *JobConfig) { c.BlankThreshold = 1.01 },
		"threshold low":   func(c *JobConfig) { c.BlankThreshold = -0.1 },
		"method":          func(c *JobConfig) { c.BlankMethod = "fx" },
		"quality":         func(c *JobConfig) { c.ColorQuality = 0 },
		"workers":         func(c *JobConfig) { c.Workers = -1 },
		"scan w/o device": func(c *JobConfig) { c.Scan = true },
		"pdf without ext": func(c *JobConfig) { c.PDFFile = "/home/me/out" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validJob()
			mutate(&c)
			var inv *scanerr.InvariantViolation
			assert.ErrorAs(t, c.Validate(), &inv)
		})
	}
}

func TestDefaultTmpDir(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 5, 1, 0, time.Local)
	assert.Equal(t, "/tmp/20261014_090501", DefaultTmpDir(now))
}
