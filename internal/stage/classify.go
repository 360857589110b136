package stage

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/page"
)

const (
	// ColorThreshold is the channel spread above which a bucket counts as color.
	ColorThreshold = 20.0
	// HistogramColors is the palette size the histogram is reduced to.
	HistogramColors = 8
)

// ClassifyColor decides between color and monochrome content from a
// reduced histogram, converting monochrome pages to normalized two-level
// grayscale.
func ClassifyColor(ctx context.Context, p *page.Page, env Env) error {
	log.Info().Int("page", p.Ordinal).Str("file", p.Name()).Msg("checking for color")
	out, err := env.Gateway.Invoke(ctx, gateway.Histogram{Input: p.Path, Colors: HistogramColors, Depth: 8})
	if err != nil {
		return err
	}
	buckets := ParseHistogram(out)
	spread := MaxSpread(buckets)
	log.Debug().Int("page", p.Ordinal).Int("buckets", len(buckets)).Float64("max_spread", spread).Msg("color histogram")

	if IsColor(buckets) {
		p.Color = page.ColorContent
	} else {
		p.Color = page.Monochrome
		if err := replace(ctx, p, env, gateway.Monochrome{Input: p.Path, Out: p.Path + "_bw"}); err != nil {
			return err
		}
	}
	return p.Advance(page.Classified)
}

// IsColor reports whether any bucket's channel spread exceeds ColorThreshold.
func IsColor(buckets []Bucket) bool {
	return MaxSpread(buckets) > ColorThreshold
}
