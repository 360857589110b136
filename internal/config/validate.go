package config

import (
	"path/filepath"
	"time"

	"github.com/local/scanpdf/internal/scanerr"
)

// Validate checks the job configuration before any work begins.
func (c JobConfig) Validate() error {
	if !c.Scan && !c.Finish {
		return scanerr.Invariantf("nothing to do: neither scan nor pdf requested")
	}
	if c.DPI <= 0 {
		return scanerr.Invariantf("dpi must be positive, got %d", c.DPI)
	}
	if c.BlankThreshold < 0 || c.BlankThreshold > 1 {
		return scanerr.Invariantf("blank threshold must be within [0, 1], got %v", c.BlankThreshold)
	}
	if c.BlankMethod != BlankStdDev && c.BlankMethod != BlankTrim {
		return scanerr.Invariantf("unknown blank detection method %q (expected %s or %s)", c.BlankMethod, BlankStdDev, BlankTrim)
	}
	if c.ColorQuality < 1 || c.ColorQuality > 100 {
		return scanerr.Invariantf("jpeg quality must be within [1, 100], got %d", c.ColorQuality)
	}
	if c.Workers < 0 {
		return scanerr.Invariantf("worker count must not be negative, got %d", c.Workers)
	}
	if c.Scan && c.Device == "" {
		return scanerr.Invariantf("scanning device is undefined")
	}
	if c.PDFFile != "" && filepath.Ext(c.PDFFile) == "" {
		return scanerr.Invariantf("output file %q has no extension", c.PDFFile)
	}
	return nil
}

// DefaultTmpDir names the working directory after the start time.
func DefaultTmpDir(now time.Time) string {
	return filepath.Join("/tmp", now.Format("20060102_150405"))
}
