package page

import "github.com/local/scanpdf/internal/scanerr"

// State is the position of a page in the finishing pipeline.
type State int

const (
	Raw State = iota
	Deskewed
	Cropped
	Classified
	Surviving
	Discarded
	PostProcessed
	Encoded
	Failed
)

var stateNames = map[State]string{
	Raw:           "raw",
	Deskewed:      "deskewed",
	Cropped:       "cropped",
	Classified:    "classified",
	Surviving:     "surviving",
	Discarded:     "discarded",
	PostProcessed: "post_processed",
	Encoded:       "encoded",
	Failed:        "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no further stage may run.
func (s State) Terminal() bool {
	return s == Discarded || s == Encoded || s == Failed
}

// transitions lists the permitted forward moves. Optional stages may be
// skipped, so a state can jump past them.
var transitions = map[State][]State{
	Raw:           {Deskewed},
	Deskewed:      {Cropped, Classified},
	Cropped:       {Classified},
	Classified:    {Surviving, Discarded, PostProcessed, Encoded},
	Surviving:     {PostProcessed, Encoded},
	PostProcessed: {Encoded},
}

// CanAdvance reports whether from → to is a legal move.
func CanAdvance(from, to State) bool {
	if to == Failed {
		return !from.Terminal()
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Advance moves the page to next, rejecting re-entry and backwards moves.
func (p *Page) Advance(next State) error {
	if !CanAdvance(p.State, next) {
		return scanerr.Invariantf("page %d: illegal stage transition %s -> %s", p.Ordinal, p.State, next)
	}
	p.State = next
	return nil
}
