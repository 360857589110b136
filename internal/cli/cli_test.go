package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/scanerr"
)

func defaults() config.JobConfig {
	return config.JobConfig{
		DPI:            300,
		FaceUp:         true,
		BlankThreshold: 0.97,
		BlankMethod:    config.BlankStdDev,
		Device:         "env-device",
		Workers:        4,
		ToolTimeout:    5 * time.Minute,
	}
}

func TestParseScanPdf(t *testing.T) {
	inv, err := parseArgs([]string{
		"scan", "pdf", "--dpi", "600", "--device", "fujitsu:fi-6130dj:%1234", "out.pdf",
		"--face-up=false", "--crop", "-v", "--blank-method", "TRIM",
	}, defaults(), io.Discard)
	require.NoError(t, err)

	j := inv.job
	assert.True(t, j.Scan)
	assert.True(t, j.Finish)
	assert.Equal(t, 600, j.DPI)
	assert.Equal(t, "fujitsu:fi-6130dj: 1234", j.Device)
	assert.Equal(t, "out.pdf", j.PDFFile)
	assert.False(t, j.FaceUp)
	assert.True(t, j.Crop)
	assert.Equal(t, config.BlankTrim, j.BlankMethod)
	assert.True(t, inv.verbose)
	assert.False(t, inv.debug)
}

func TestParseFinishDefaults(t *testing.T) {
	for _, cmd := range []string{"pdf", "finish"} {
		inv, err := parseArgs([]string{cmd, "--tmpdir", "/tmp/20240301_093000", "-d"}, defaults(), io.Discard)
		require.NoError(t, err)
		j := inv.job
		assert.False(t, j.Scan)
		assert.True(t, j.Finish)
		assert.Equal(t, "/tmp/20240301_093000", j.TmpDir)
		assert.Equal(t, "env-device", j.Device, "device falls back to the environment")
		assert.True(t, j.FaceUp)
		assert.Equal(t, 0.97, j.BlankThreshold)
		assert.Equal(t, 5*time.Minute, j.ToolTimeout)
		assert.True(t, inv.debug)
	}
}

func TestParseScanOnly(t *testing.T) {
	inv, err := parseArgs([]string{"scan", "--keep-tmpdir"}, defaults(), io.Discard)
	require.NoError(t, err)
	assert.True(t, inv.job.Scan)
	assert.False(t, inv.job.Finish)
	assert.True(t, inv.job.KeepTmpDir)
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"print"},
		{"pdf", "--no-such-flag"},
		{"pdf", "--dpi", "many"},
		{"pdf", "a.pdf", "b.pdf"},
		{"scan", "a.pdf"},
	} {
		_, err := parseArgs(args, defaults(), io.Discard)
		require.Error(t, err, "%v", args)
		assert.Equal(t, ExitUsage, ExitCode(err), "%v", args)
	}

	_, err := parseArgs(nil, defaults(), io.Discard)
	assert.ErrorIs(t, err, errUsage)

	_, err = parseArgs([]string{"pdf", "-h"}, defaults(), io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRequiredTools(t *testing.T) {
	tools := gateway.DefaultTools()
	j := defaults()
	j.Scan = true
	assert.Equal(t, []string{"scanadf"}, requiredTools(tools, j))

	j.Finish = true
	j.TextRecognize = true
	assert.Equal(t, []string{"scanadf", "deskew", "convert", "identify", "gs", "pdfsandwich"}, requiredTools(tools, j))
}

func TestReportToolFailure(t *testing.T) {
	err := fmt.Errorf("deskew page 2 (page_0002): %w", &scanerr.ExternalToolFailure{
		Operation:  "deskew",
		Command:    []string{"deskew", "-o", "page_0002.ppm", "page_0002"},
		ExitStatus: 1,
		Output:     "cannot open input\nabort",
	})
	var buf bytes.Buffer
	Report(&buf, err)

	out := buf.String()
	assert.Contains(t, out, "error: deskew page 2")
	assert.Contains(t, out, "command: deskew -o page_0002.ppm page_0002\n")
	assert.Contains(t, out, "  cannot open input\n  abort\n")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUsage, ExitCode(scanerr.Invariantf("odd page count")))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("disk full")))
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"help"}, &out, io.Discard))
	assert.Contains(t, out.String(), "scanpdf scan pdf")
}

func TestNoLocator(t *testing.T) {
	_, err := noLocator{}.Locate(context.Background(), "scan.pdf")
	assert.Error(t, err)
}
