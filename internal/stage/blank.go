package stage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/page"
)

// boundaryEpsilon absorbs float error in 1-threshold so a metric printed
// exactly at the boundary compares as equal.
const boundaryEpsilon = 1e-9

// shave/blur/fuzz for the residual-content measure
const (
	blankShavePercent = 1
	blankBlurSigma    = 2
	blankFuzzPercent  = 15
)

// DetectBlank discards pages without printed content. The boundary is
// inclusive: a page whose content metric equals 1-threshold is kept.
func DetectBlank(ctx context.Context, p *page.Page, env Env) error {
	log.Info().Int("page", p.Ordinal).Str("file", p.Name()).Msg("checking if blank")
	blank, err := IsBlank(ctx, p, env)
	if err != nil {
		return err
	}
	if blank {
		log.Info().Int("page", p.Ordinal).Msg("blank page removed")
		return p.Discard()
	}
	return p.Advance(page.Surviving)
}

// IsBlank measures the page without changing it. A missing artifact is blank.
func IsBlank(ctx context.Context, p *page.Page, env Env) (bool, error) {
	if !p.Exists() {
		return true, nil
	}
	minContent := 1 - env.Config.BlankThreshold
	switch env.Config.BlankMethod {
	case config.BlankTrim:
		return blankByResidual(ctx, p, env, minContent)
	case config.BlankStdDev, "":
		return blankByStdDev(ctx, p, env, minContent)
	default:
		return false, fmt.Errorf("unknown blank detection method %q", env.Config.BlankMethod)
	}
}

func blankByStdDev(ctx context.Context, p *page.Page, env Env, minContent float64) (bool, error) {
	out, err := env.Gateway.Invoke(ctx, gateway.Statistics{Input: p.Path})
	if err != nil {
		return false, err
	}
	for _, sd := range ParseStdDevs(out) {
		log.Debug().Int("page", p.Ordinal).Str("std_dev", fmt.Sprintf("%.4f", sd)).Msg("page std. dev")
		if atLeast(sd, minContent) {
			return false, nil
		}
	}
	return true, nil
}

func blankByResidual(ctx context.Context, p *page.Page, env Env, minContent float64) (bool, error) {
	out, err := env.Gateway.Invoke(ctx, gateway.BlankTrim{
		Input:        p.Path,
		ShavePercent: blankShavePercent,
		FuzzPercent:  blankFuzzPercent,
		BlurSigma:    blankBlurSigma,
	})
	if err != nil {
		return false, err
	}
	w, h, err := ParseDimensions(out)
	if err != nil {
		return false, err
	}
	log.Debug().Int("page", p.Ordinal).Int("residual_w", w).Int("residual_h", h).Msg("residual content")

	minPx := env.Config.MinResidualPixels
	if w < minPx || h < minPx {
		return true, nil
	}
	if !p.HasDimensions() {
		return false, nil
	}
	fraction := float64(w*h) / float64(p.Width*p.Height)
	return !atLeast(fraction, minContent), nil
}

func atLeast(v, bound float64) bool { return v >= bound-boundaryEpsilon }
