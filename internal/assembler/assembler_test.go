package assembler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/gateway/gatewaytest"
	"github.com/local/scanpdf/internal/page"
	"github.com/local/scanpdf/internal/pdfcheck"
	"github.com/local/scanpdf/internal/scanerr"
)

type staticLocator struct {
	path      string
	suggested string
}

func (l *staticLocator) Locate(_ context.Context, suggested string) (string, error) {
	l.suggested = suggested
	return l.path, nil
}

type textChecker struct{ hasText bool }

func (c textChecker) HasTextLayer(path string) (*pdfcheck.Report, error) {
	return &pdfcheck.Report{Path: path, HasText: c.hasText}, nil
}

func encodedPages(t *testing.T, dir string, ordinals ...int) []*page.Page {
	t.Helper()
	var pages []*page.Page
	for _, n := range ordinals {
		path := filepath.Join(dir, filepath.Base(t.Name())+"_"+string(rune('0'+n))+".pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
		p := page.New(n, path)
		p.State = page.Encoded
		pages = append(pages, p)
	}
	return pages
}

func countOf(n int) func(string) (int, error) {
	return func(string) (int, error) { return n, nil }
}

func newAssembler(t *testing.T, g gateway.Gateway, pages int) (*Assembler, string) {
	t.Helper()
	work := filepath.Join(t.TempDir(), "20240301_093000")
	require.NoError(t, os.Mkdir(work, 0o755))
	return &Assembler{
		Gateway:     g,
		Config:      config.JobConfig{DPI: 300},
		WorkDir:     work,
		OwnsWorkDir: true,
		Destination: filepath.Join(t.TempDir(), "out", "letter.pdf"),
		CountPages:  countOf(pages),
	}, work
}

func TestAssemble(t *testing.T) {
	g := gatewaytest.New()
	a, work := newAssembler(t, g, 2)
	pages := encodedPages(t, work, 3, 1)

	dest, err := a.Assemble(context.Background(), pages)
	require.NoError(t, err)
	assert.Equal(t, a.Destination, dest)
	assert.FileExists(t, dest)

	combine := g.Requests()[0].(gateway.Combine)
	assert.Equal(t, []string{pages[0].Path, pages[1].Path}, combine.Inputs, "page order is kept")
	assert.Equal(t, filepath.Join(work, "letter.pdf"), combine.Out)
	assert.Equal(t, 300, combine.DPI)

	for _, p := range pages {
		assert.NoFileExists(t, p.Path)
	}
	assert.NoDirExists(t, work)
}

func TestAssembleKeepsForeignWorkDir(t *testing.T) {
	a, work := newAssembler(t, gatewaytest.New(), 1)
	a.OwnsWorkDir = false

	_, err := a.Assemble(context.Background(), encodedPages(t, work, 1))
	require.NoError(t, err)
	assert.DirExists(t, work)
}

func TestAssembleKeepTmpDirRemovesPageArtifacts(t *testing.T) {
	a, work := newAssembler(t, gatewaytest.New(), 2)
	a.Config.KeepTmpDir = true
	pages := encodedPages(t, work, 1, 2)

	_, err := a.Assemble(context.Background(), pages)
	require.NoError(t, err)
	assert.DirExists(t, work)
	for _, p := range pages {
		assert.NoFileExists(t, p.Path)
	}
	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "only the directory itself is kept")
}

func TestAssembleWithTextLayer(t *testing.T) {
	g := gatewaytest.New()
	a, work := newAssembler(t, g, 1)
	a.Config.TextRecognize = true
	a.TextCheck = textChecker{hasText: true}

	dest, err := a.Assemble(context.Background(), encodedPages(t, work, 1))
	require.NoError(t, err)
	assert.Equal(t, []gateway.Op{gateway.OpCombine, gateway.OpTextLayer}, g.Ops())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "text_layer\n", string(data), "the OCR output is what gets filed")
}

func TestAssembleNoPages(t *testing.T) {
	a, _ := newAssembler(t, gatewaytest.New(), 0)
	_, err := a.Assemble(context.Background(), nil)
	var inv *scanerr.InvariantViolation
	assert.ErrorAs(t, err, &inv)
}

func TestAssemblePageCountMismatch(t *testing.T) {
	a, work := newAssembler(t, gatewaytest.New(), 3)
	pages := encodedPages(t, work, 1, 2)

	_, err := a.Assemble(context.Background(), pages)
	var inv *scanerr.InvariantViolation
	require.ErrorAs(t, err, &inv)
	assert.NoFileExists(t, a.Destination)
	assert.FileExists(t, pages[0].Path, "artifacts stay for diagnosis")
}

func TestAssembleCombineFailure(t *testing.T) {
	g := gatewaytest.New()
	g.Handler = func(req gateway.Request) ([]byte, error) {
		return nil, gatewaytest.Failure(req.Operation(), "gs: unrecoverable error")
	}
	a, work := newAssembler(t, g, 1)

	_, err := a.Assemble(context.Background(), encodedPages(t, work, 1))
	_, ok := scanerr.AsToolFailure(err)
	assert.True(t, ok)
	assert.NoFileExists(t, a.Destination)
}

func TestAssembleMissingPage(t *testing.T) {
	a, work := newAssembler(t, gatewaytest.New(), 1)
	p := page.New(1, filepath.Join(work, "gone.pdf"))

	_, err := a.Assemble(context.Background(), []*page.Page{p})
	assert.True(t, scanerr.IsMissingArtifact(err))
}

func TestAssembleAsksLocator(t *testing.T) {
	a, work := newAssembler(t, gatewaytest.New(), 1)
	loc := &staticLocator{path: filepath.Join(t.TempDir(), "chosen.pdf")}
	a.Destination = ""
	a.Locator = loc

	dest, err := a.Assemble(context.Background(), encodedPages(t, work, 1))
	require.NoError(t, err)
	assert.Equal(t, loc.path, dest)
	assert.Equal(t, "scan.pdf", loc.suggested)
}

func TestAssembleNoDestination(t *testing.T) {
	a, work := newAssembler(t, gatewaytest.New(), 1)
	a.Destination = ""

	_, err := a.Assemble(context.Background(), encodedPages(t, work, 1))
	assert.Error(t, err)
}

func TestMovePath(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(src, []byte("doc"), 0o644))

	// neither rename nor copy can replace a directory
	dstDir := t.TempDir()
	err := movePath(src, dstDir)
	assert.Error(t, err)
	assert.FileExists(t, src)

	dst := filepath.Join(t.TempDir(), "b.pdf")
	require.NoError(t, movePath(src, dst))
	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(data))
}

func TestCopyFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))
	dst := filepath.Join(t.TempDir(), "b")

	require.NoError(t, copyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	assert.True(t, errors.Is(copyFile(filepath.Join(t.TempDir(), "none"), dst), os.ErrNotExist))
}
