// Package assembler combines encoded pages into the finished document and
// files it at its destination.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/page"
	"github.com/local/scanpdf/internal/pdfcheck"
	"github.com/local/scanpdf/internal/scanerr"
)

// SaveLocator supplies a destination when none was configured.
type SaveLocator interface {
	Locate(ctx context.Context, suggested string) (string, error)
}

// TextChecker reports whether a document has a text layer.
type TextChecker interface {
	HasTextLayer(path string) (*pdfcheck.Report, error)
}

// Assembler turns the surviving pages of one job into one PDF.
type Assembler struct {
	Gateway gateway.Gateway
	Config  config.JobConfig
	WorkDir string
	// OwnsWorkDir is set when the job created the working directory itself.
	OwnsWorkDir bool
	Destination string
	Locator     SaveLocator

	// CountPages defaults to pdfcpu.
	CountPages func(path string) (int, error)
	// TextCheck defaults to a MuPDF-backed checker.
	TextCheck TextChecker
}

// Assemble combines pages in the given order, verifies the result, moves it
// to the destination and cleans up. It returns the final path.
func (a *Assembler) Assemble(ctx context.Context, pages []*page.Page) (string, error) {
	if len(pages) == 0 {
		return "", scanerr.Invariantf("no pages left to assemble")
	}
	for _, p := range pages {
		if err := p.RequireArtifact(); err != nil {
			return "", fmt.Errorf("assemble %s: %w", p, err)
		}
	}

	combined := filepath.Join(a.WorkDir, a.baseName()+".pdf")
	log.Info().Int("pages", len(pages)).Str("file", combined).Msg("combining pages")
	if _, err := a.Gateway.Invoke(ctx, gateway.Combine{Inputs: page.Paths(pages), Out: combined, DPI: a.Config.DPI}); err != nil {
		return "", err
	}

	result := combined
	if a.Config.TextRecognize {
		var err error
		if result, err = a.addTextLayer(ctx, combined); err != nil {
			return "", err
		}
	}

	if err := a.verifyPageCount(result, len(pages)); err != nil {
		return "", err
	}

	dest, err := a.destination(ctx)
	if err != nil {
		return "", err
	}
	if err := movePath(result, dest); err != nil {
		return "", fmt.Errorf("move %s to %s: %w", result, dest, err)
	}
	log.Info().Str("file", dest).Int("pages", len(pages)).Msg("document written")

	a.cleanup(pages)
	return dest, nil
}

func (a *Assembler) baseName() string {
	if a.Destination == "" {
		return "scan"
	}
	base := filepath.Base(a.Destination)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *Assembler) addTextLayer(ctx context.Context, path string) (string, error) {
	log.Info().Str("file", filepath.Base(path)).Msg("running OCR")
	req := gateway.TextLayer{Input: path}
	if _, err := a.Gateway.Invoke(ctx, req); err != nil {
		return "", err
	}
	out := req.Output()
	if _, err := os.Stat(out); err != nil {
		return "", &scanerr.MissingArtifact{Path: out}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	checker := a.TextCheck
	if checker == nil {
		checker = pdfcheck.New()
	}
	rep, err := checker.HasTextLayer(out)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("file", filepath.Base(out)).Msg("could not verify text layer")
	case !rep.HasText:
		log.Warn().Str("file", filepath.Base(out)).Int("chars", rep.TotalChars).Msg("OCR produced no usable text")
	default:
		log.Debug().Int("chars", rep.TotalChars).Dur("duration", rep.Duration).Msg("text layer present")
	}
	return out, nil
}

func (a *Assembler) verifyPageCount(path string, want int) error {
	count := a.CountPages
	if count == nil {
		count = api.PageCountFile
	}
	got, err := count(path)
	if err != nil {
		return fmt.Errorf("pdf page count failed: %w", err)
	}
	if got != want {
		return scanerr.Invariantf("%s has %d pages, expected %d", filepath.Base(path), got, want)
	}
	return nil
}

func (a *Assembler) destination(ctx context.Context) (string, error) {
	if a.Destination != "" {
		return a.Destination, nil
	}
	if a.Locator == nil {
		return "", errors.New("no destination file given")
	}
	dest, err := a.Locator.Locate(ctx, a.baseName()+".pdf")
	if err != nil {
		return "", fmt.Errorf("choose destination: %w", err)
	}
	return dest, nil
}

// cleanup deletes every page artifact, then the working directory when the
// job created it and the operator did not ask to keep it.
func (a *Assembler) cleanup(pages []*page.Page) {
	for _, p := range pages {
		if err := p.Remove(); err != nil {
			log.Warn().Err(err).Str("file", p.Name()).Msg("could not remove page artifact")
		}
	}
	if a.Config.KeepTmpDir {
		log.Info().Str("dir", a.WorkDir).Msg("keeping working directory")
		return
	}
	if !a.OwnsWorkDir {
		return
	}
	if err := os.Remove(a.WorkDir); err != nil {
		log.Warn().Err(err).Str("dir", a.WorkDir).Msg("could not remove working directory")
	}
}

// movePath renames src to dst, copying when they are on different filesystems.
func movePath(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
