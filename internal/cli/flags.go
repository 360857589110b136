package cli

import (
	"errors"
	"flag"
	"io"
	"strings"

	"github.com/local/scanpdf/internal/config"
)

// invocation is a parsed command line.
type invocation struct {
	job     config.JobConfig
	verbose bool
	debug   bool
}

// parseArgs reads "scan [pdf]", "pdf" or "finish" followed by flags and an
// optional output file. Environment-derived defaults come in through def.
func parseArgs(args []string, def config.JobConfig, out io.Writer) (invocation, error) {
	inv := invocation{job: def}
	if len(args) == 0 {
		return inv, errUsage
	}
	switch args[0] {
	case "scan":
		inv.job.Scan = true
		args = args[1:]
		if len(args) > 0 && (args[0] == "pdf" || args[0] == "finish") {
			inv.job.Finish = true
			args = args[1:]
		}
	case "pdf", "finish":
		inv.job.Finish = true
		args = args[1:]
	default:
		return inv, usageErr("unknown command %q", args[0])
	}

	j := &inv.job
	fs := flag.NewFlagSet("scanpdf", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.IntVar(&j.DPI, "dpi", def.DPI, "scan resolution")
	device := fs.String("device", "", "scanner device (use % for spaces; defaults to $SCANBD_DEVICE)")
	fs.StringVar(&j.TmpDir, "tmpdir", def.TmpDir, "working directory (default /tmp/YYYYMMDD_HHMMSS)")
	fs.BoolVar(&j.KeepTmpDir, "keep-tmpdir", def.KeepTmpDir, "keep the working directory after finishing")
	fs.BoolVar(&j.DiscardOnFailure, "discard-on-failure", def.DiscardOnFailure, "remove the working directory after a failed run")
	fs.BoolVar(&j.FaceUp, "face-up", def.FaceUp, "pages were fed face up (reverse the duplex batch)")
	fs.BoolVar(&j.Crop, "crop", def.Crop, "trim the scanner border")
	fs.BoolVar(&j.KeepBlanks, "keep-blanks", def.KeepBlanks, "do not remove blank pages")
	fs.Float64Var(&j.BlankThreshold, "blank-threshold", def.BlankThreshold, "blank page threshold, 0.0 to 1.0")
	fs.StringVar(&j.BlankMethod, "blank-method", def.BlankMethod, "blank detection method: stddev or trim")
	fs.BoolVar(&j.PostProcess, "post-process", def.PostProcess, "clean pages with unpaper")
	fs.BoolVar(&j.TextRecognize, "text-recognize", def.TextRecognize, "add an OCR text layer")
	fs.BoolVar(&j.Rotate180, "rotate", def.Rotate180, "rotate every page by 180 degrees")
	fs.IntVar(&j.Workers, "workers", def.Workers, "pages processed in parallel")
	fs.DurationVar(&j.ToolTimeout, "timeout", def.ToolTimeout, "timeout per external tool invocation")
	fs.BoolVar(&inv.verbose, "v", false, "verbose output")
	fs.BoolVar(&inv.verbose, "verbose", false, "verbose output")
	fs.BoolVar(&inv.debug, "d", false, "debug output")
	fs.BoolVar(&inv.debug, "debug", false, "debug output")

	positional, err := parseInterspersed(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return inv, err
	}
	if err != nil {
		return inv, usageErr("%w", err)
	}
	switch len(positional) {
	case 0:
	case 1:
		j.PDFFile = positional[0]
	default:
		return inv, usageErr("unexpected arguments: %s", strings.Join(positional[1:], " "))
	}
	if j.PDFFile != "" && !j.Finish {
		return inv, usageErr("output file %q given without the pdf command", j.PDFFile)
	}

	if *device != "" {
		j.Device = strings.ReplaceAll(*device, "%", " ")
	}
	j.BlankMethod = strings.ToLower(j.BlankMethod)
	return inv, nil
}

// parseInterspersed lets positional arguments appear between flags.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
