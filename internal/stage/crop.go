package stage

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/page"
)

// CropFuzzPercent is the color tolerance used when trimming the border.
const CropFuzzPercent = 20

// Crop trims the scanner border, then pads the page back to its original
// size on white so every page of the document has the same dimensions.
func Crop(ctx context.Context, p *page.Page, env Env) error {
	log.Info().Int("page", p.Ordinal).Str("file", p.Name()).Msg("cropping")
	if err := replace(ctx, p, env, gateway.Trim{Input: p.Path, Out: p.Path + ".crop", FuzzPercent: CropFuzzPercent}); err != nil {
		return err
	}

	if p.HasDimensions() {
		pad := gateway.Extent{Input: p.Path, Out: p.Path + ".pad", Width: p.Width, Height: p.Height, Background: "white"}
		if err := replace(ctx, p, env, pad); err != nil {
			return err
		}
	} else {
		log.Debug().Int("page", p.Ordinal).Msg("original size unknown; skipping padding")
	}
	return p.Advance(page.Cropped)
}
