package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/filetype"
	"github.com/local/scanpdf/internal/page"
)

// PagePattern matches raw acquisition files.
const PagePattern = "page_*"

// ListPages returns the raw pages in dir in acquisition order, numbering
// them from 1. Derived artifacts (any name with an extension) and files
// that are not images are skipped.
func ListPages(dir string, det *filetype.Detector) ([]*page.Page, error) {
	matches, err := filepath.Glob(filepath.Join(dir, PagePattern))
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	sortNatural(matches)

	var pages []*page.Page
	for _, path := range matches {
		name := filepath.Base(path)
		if strings.Contains(name, ".") {
			log.Warn().Str("file", name).Msg("not a raw page (derived artifact name); skipping")
			continue
		}
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		ok, err := det.IsPageImage(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Warn().Str("file", name).Msg("not an image; skipping")
			continue
		}
		pages = append(pages, page.New(len(pages)+1, path))
	}
	log.Debug().Str("dir", dir).Int("pages", len(pages)).Msg("listed pages")
	return pages, nil
}

// sortNatural orders paths by base name, treating digit runs as numbers so
// page_9 sorts before page_10.
func sortNatural(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return natural.Less(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
}
