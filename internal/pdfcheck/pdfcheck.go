// Package pdfcheck verifies that a finished document carries a usable
// text layer.
package pdfcheck

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
)

// DefaultMinChars is used when a non-positive minimum is passed in.
const DefaultMinChars = 20

// PageProbe records the text found on one sampled page.
type PageProbe struct {
	PageIndex int    `json:"page_index"`
	CharCount int    `json:"char_count"`
	Err       string `json:"err,omitempty"`
}

// Report is the outcome of a text layer check.
type Report struct {
	Path         string      `json:"path"`
	TotalPages   int         `json:"total_pages"`
	SampledPages []int       `json:"sampled_pages"`
	TotalChars   int         `json:"total_chars"`
	MinChars     int         `json:"min_chars"`
	Probes       []PageProbe `json:"probes"`
	HasText      bool        `json:"has_text"`
	Duration     time.Duration
}

var whitespace = regexp.MustCompile(`\s+`)

// Doc abstracts a PDF document for text extraction.
type Doc interface {
	NumPage() int
	Text(i int) (string, error)
	Close() error
}

// Opener opens a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// Checker samples pages of a document for extractable text.
type Checker struct {
	Opener   Opener
	MinChars int
}

// New returns a Checker backed by MuPDF.
func New() *Checker {
	return &Checker{Opener: fitzOpener{}, MinChars: DefaultMinChars}
}

// HasTextLayer reports whether the sampled pages of path hold at least
// MinChars non-whitespace characters in total.
func (c *Checker) HasTextLayer(path string) (*Report, error) {
	if c.Opener == nil {
		return nil, errors.New("no PDF opener configured")
	}
	minChars := c.MinChars
	if minChars <= 0 {
		minChars = DefaultMinChars
	}

	start := time.Now()
	doc, err := c.Opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	rep := &Report{Path: path, TotalPages: total, MinChars: minChars, SampledPages: sampleIndices(total)}
	for _, idx := range rep.SampledPages {
		probe := PageProbe{PageIndex: idx}
		text, err := doc.Text(idx)
		if err != nil {
			probe.Err = err.Error()
		} else {
			probe.CharCount = len([]rune(whitespace.ReplaceAllString(text, "")))
			rep.TotalChars += probe.CharCount
		}
		rep.Probes = append(rep.Probes, probe)
		if rep.TotalChars >= minChars {
			break
		}
	}
	rep.HasText = rep.TotalChars >= minChars
	rep.Duration = time.Since(start)
	return rep, nil
}

// sampleIndices picks every page of short documents, otherwise the
// first, middle and last page.
func sampleIndices(total int) []int {
	if total <= 0 {
		return []int{}
	}
	if total <= 3 {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	set := map[int]struct{}{0: {}, total / 2: {}, total - 1: {}}
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
