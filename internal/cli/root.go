// Package cli is the scanpdf command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/logger"
	"github.com/local/scanpdf/internal/metrics"
	"github.com/local/scanpdf/internal/scanjob"
	"github.com/local/scanpdf/internal/store"
)

var errUsage = errors.New("missing command")

// Run executes one scanpdf invocation. The finished document path is
// printed to stdout; diagnostics go to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		printUsage(stdout)
		return nil
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg := config.FromEnv()

	inv, err := parseArgs(args, cfg.Job, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		if errors.Is(err, errUsage) {
			printUsage(stderr)
		}
		return err
	}

	if err := logger.Init(logger.Options{
		Level:        logger.LevelFor(inv.verbose, inv.debug, cfg.Logging.Level),
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		Console:      stderr,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	}); err != nil {
		return err
	}
	defer logger.Close()
	metrics.Init()

	tools := toolsFrom(cfg.Tools)
	if err := gateway.CheckInstallation(requiredTools(tools, inv.job)...); err != nil {
		return err
	}
	maxTools := inv.job.MaxConcurrentTools
	if maxTools <= 0 {
		maxTools = inv.job.Workers
	}
	gw := gateway.NewExec(gateway.Options{Tools: tools, Timeout: inv.job.ToolTimeout, MaxConcurrent: maxTools})

	status := openStatus(ctx, cfg.Status)
	defer status.Close()

	job, err := scanjob.New(inv.job, scanjob.Deps{Gateway: gw, Status: status, Locator: noLocator{}})
	if err != nil {
		return err
	}
	res, err := job.Run(ctx)
	pushMetrics(cfg.Metrics)
	if err != nil {
		return err
	}
	if res.Output != "" {
		fmt.Fprintln(stdout, res.Output)
	}
	log.Info().Str("elapsed", fmt.Sprintf("%.2fs", res.Elapsed.Seconds())).Int("pages", res.Pages).
		Int("surviving", res.Surviving).Msg("elapsed time")
	return nil
}

func toolsFrom(c config.ToolsConfig) gateway.Tools {
	return gateway.Tools{
		Deskew:      c.Deskew,
		Convert:     c.Convert,
		Identify:    c.Identify,
		Unpaper:     c.Unpaper,
		Ghostscript: c.Ghostscript,
		PdfSandwich: c.PdfSandwich,
		Scanadf:     c.Scanadf,
		Logger:      c.Logger,
	}
}

// requiredTools lists the executables the configured job will run.
func requiredTools(t gateway.Tools, job config.JobConfig) []string {
	var names []string
	if job.Scan {
		names = append(names, t.Scanadf)
	}
	if job.Finish {
		names = append(names, t.Deskew, t.Convert, t.Identify, t.Ghostscript)
		if job.PostProcess {
			names = append(names, t.Unpaper)
		}
		if job.TextRecognize {
			names = append(names, t.PdfSandwich)
		}
	}
	return names
}

func openStatus(ctx context.Context, c config.StatusConfig) store.Reporter {
	if c.RedisURL == "" {
		return store.Nop{}
	}
	rs, err := store.NewRedisStatus(ctx, c.RedisURL, c.TTL)
	if err != nil {
		log.Warn().Err(err).Msg("status feed disabled")
		return store.Nop{}
	}
	return rs
}

func pushMetrics(c config.MetricsConfig) {
	if c.PushURL == "" {
		return
	}
	if err := metrics.Push(c.PushURL, c.Job, c.Instance); err != nil {
		log.Warn().Err(err).Str("url", c.PushURL).Msg("could not push metrics")
	}
}

// noLocator stands in for the interactive save dialog.
type noLocator struct{}

func (noLocator) Locate(context.Context, string) (string, error) {
	return "", errors.New("no output file given; pass <pdffile> after the pdf command")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "scanpdf: scan a duplex batch and finish it into one PDF")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  scanpdf scan [options]")
	fmt.Fprintln(w, "  scanpdf pdf [options] <pdffile>")
	fmt.Fprintln(w, "  scanpdf scan pdf [options] <pdffile>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  scan      acquire pages from the feeder into the working directory")
	fmt.Fprintln(w, "  pdf       finish the pages in the working directory (alias: finish)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --dpi <n>                 scan resolution [default: 300]")
	fmt.Fprintln(w, "  --device <dev>            scanner device, % for spaces [default: $SCANBD_DEVICE]")
	fmt.Fprintln(w, "  --tmpdir <dir>            working directory [default: /tmp/YYYYMMDD_HHMMSS]")
	fmt.Fprintln(w, "  --keep-tmpdir             keep the working directory")
	fmt.Fprintln(w, "  --discard-on-failure      remove the working directory after a failure")
	fmt.Fprintln(w, "  --face-up=<bool>          pages were fed face up [default: true]")
	fmt.Fprintln(w, "  --crop                    trim the scanner border")
	fmt.Fprintln(w, "  --keep-blanks             do not remove blank pages")
	fmt.Fprintln(w, "  --blank-threshold <f>     0.0 to 1.0 [default: 0.97]")
	fmt.Fprintln(w, "  --blank-method <m>        stddev or trim [default: stddev]")
	fmt.Fprintln(w, "  --post-process            clean pages with unpaper")
	fmt.Fprintln(w, "  --text-recognize          add an OCR text layer")
	fmt.Fprintln(w, "  --rotate                  rotate pages by 180 degrees")
	fmt.Fprintln(w, "  --workers <n>             parallel pages [default: CPU count]")
	fmt.Fprintln(w, "  --timeout <d>             per-tool timeout [default: 5m]")
	fmt.Fprintln(w, "  -v, --verbose             verbose output")
	fmt.Fprintln(w, "  -d, --debug               debug output")
}
