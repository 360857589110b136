package stage

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/page"
)

// PostProcess runs the despeckle/deskew cleanup tool over the page.
func PostProcess(ctx context.Context, p *page.Page, env Env) error {
	log.Info().Int("page", p.Ordinal).Str("file", p.Name()).Msg("post-processing with unpaper")

	// unpaper picks its reader from the file extension
	ppm := p.Path + ".ppm"
	if err := os.Rename(p.Path, ppm); err != nil {
		return fmt.Errorf("rename for post-processing: %w", err)
	}
	p.Path = ppm

	if err := replace(ctx, p, env, gateway.Despeckle{Input: p.Path, Out: p.Path + "_unpaper"}); err != nil {
		return err
	}
	return p.Advance(page.PostProcessed)
}

// Encode writes the page as a single-page PDF: bilevel Group 4 for
// monochrome pages, 4:2:0 JPEG for color.
func Encode(ctx context.Context, p *page.Page, env Env) error {
	req := gateway.EncodePage{
		Input:      p.Path,
		Out:        p.Path + ".pdf",
		DPI:        env.Config.DPI,
		Monochrome: p.Color != page.ColorContent,
		Quality:    env.Config.ColorQuality,
	}
	if env.Config.Rotate180 {
		req.Rotate = 180
	}
	log.Info().Int("page", p.Ordinal).Str("file", p.Name()).Str("color", p.Color.String()).Msg("encoding")
	if err := replace(ctx, p, env, req); err != nil {
		return err
	}
	return p.Advance(page.Encoded)
}
