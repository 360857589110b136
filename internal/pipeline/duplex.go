package pipeline

import (
	"github.com/local/scanpdf/internal/page"
	"github.com/local/scanpdf/internal/scanerr"
)

// ReorderFaceUp reverses a duplex batch fed face up, restoring reading
// order. Duplex batches come in sheets, so an odd count is rejected and
// the slice is left untouched.
func ReorderFaceUp(pages []*page.Page) error {
	if len(pages)%2 != 0 {
		return scanerr.Invariantf("duplex scan has an odd number of pages (%d)", len(pages))
	}
	for i, j := 0, len(pages)-1; i < j; i, j = i+1, j-1 {
		pages[i], pages[j] = pages[j], pages[i]
	}
	return nil
}
