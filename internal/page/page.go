package page

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/local/scanpdf/internal/scanerr"
)

// Color is the content classification of a page.
type Color int

const (
	Unclassified Color = iota
	ColorContent
	Monochrome
)

func (c Color) String() string {
	switch c {
	case ColorContent:
		return "color"
	case Monochrome:
		return "monochrome"
	default:
		return "unclassified"
	}
}

// Page is one scanned sheet and its evolving image artifact. A Page is
// mutated only by the worker that currently owns it.
type Page struct {
	// Ordinal is the 1-based position in acquisition order. Never changes.
	Ordinal int
	// Path is the current artifact, exclusively owned by the page.
	Path  string
	Color Color
	Alive bool
	State State

	// Original dimensions, zero when the lookup failed.
	Width, Height int
}

// New returns a live, unprocessed page.
func New(ordinal int, path string) *Page {
	return &Page{Ordinal: ordinal, Path: path, Alive: true, State: Raw}
}

func (p *Page) String() string {
	return fmt.Sprintf("page %d (%s)", p.Ordinal, filepath.Base(p.Path))
}

// Name is the base name of the current artifact.
func (p *Page) Name() string { return filepath.Base(p.Path) }

// HasDimensions reports whether the original size is known.
func (p *Page) HasDimensions() bool { return p.Width > 0 && p.Height > 0 }

// Exists reports whether the current artifact is present on disk.
func (p *Page) Exists() bool {
	if p.Path == "" {
		return false
	}
	_, err := os.Stat(p.Path)
	return err == nil
}

// Replace hands ownership to a new artifact and deletes the previous one.
func (p *Page) Replace(next string) error {
	prev := p.Path
	p.Path = next
	if prev == "" || prev == next {
		return nil
	}
	if err := os.Remove(prev); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", prev, err)
	}
	return nil
}

// Discard marks the page blank and removes its artifact. Normally reached
// from Classified; a page whose artifact vanished is discarded from
// whatever stage it was in.
func (p *Page) Discard() error {
	if p.State.Terminal() {
		return scanerr.Invariantf("page %d: cannot discard from terminal state %s", p.Ordinal, p.State)
	}
	p.State = Discarded
	p.Alive = false
	prev := p.Path
	p.Path = ""
	if prev == "" {
		return nil
	}
	if err := os.Remove(prev); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", prev, err)
	}
	return nil
}

// Fail moves the page into the Failed terminal state.
func (p *Page) Fail() { p.State = Failed }

// Remove deletes the current artifact, if any.
func (p *Page) Remove() error {
	if p.Path == "" {
		return nil
	}
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RequireArtifact returns a MissingArtifact error when the file is gone.
func (p *Page) RequireArtifact() error {
	if !p.Exists() {
		return &scanerr.MissingArtifact{Path: p.Path}
	}
	return nil
}

// Ordinals lists page ordinals in slice order.
func Ordinals(pages []*Page) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.Ordinal
	}
	return out
}

// Paths lists current artifacts in slice order.
func Paths(pages []*Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Path
	}
	return out
}
