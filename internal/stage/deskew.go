package stage

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/page"
)

// Deskew straightens the raw scan. Failure is fatal to the job.
//
// When a later stage needs the original page size (crop padding, the
// trim blank measure) it is looked up first; a failed lookup leaves the
// size unknown and is not an error.
func Deskew(ctx context.Context, p *page.Page, env Env) error {
	if needsDimensions(env.Config) && !p.HasDimensions() {
		lookupDimensions(ctx, p, env)
	}

	log.Info().Int("page", p.Ordinal).Str("file", p.Name()).Msg("deskewing")
	if err := replace(ctx, p, env, gateway.Deskew{Input: p.Path, Out: p.Path + ".ppm"}); err != nil {
		return err
	}
	return p.Advance(page.Deskewed)
}

func needsDimensions(cfg config.JobConfig) bool {
	return cfg.Crop || (!cfg.KeepBlanks && cfg.BlankMethod == config.BlankTrim)
}

func lookupDimensions(ctx context.Context, p *page.Page, env Env) {
	out, err := env.Gateway.Invoke(ctx, gateway.Identify{Input: p.Path})
	if err == nil {
		p.Width, p.Height, err = ParseDimensions(out)
	}
	if err != nil {
		p.Width, p.Height = 0, 0
		log.Warn().Err(err).Int("page", p.Ordinal).Msg("could not determine page dimensions")
		return
	}
	log.Debug().Int("page", p.Ordinal).Int("width", p.Width).Int("height", p.Height).Msg("page dimensions")
}
