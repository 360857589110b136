// Package stage holds the per-page finishing transformations. Each stage
// takes ownership of the page's current artifact, replaces it with the
// stage's result and advances the page state.
package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/metrics"
	"github.com/local/scanpdf/internal/page"
	"github.com/local/scanpdf/internal/scanerr"
)

// Env is what every stage needs besides the page itself.
type Env struct {
	Config  config.JobConfig
	Gateway gateway.Gateway
}

// Func transforms one page.
type Func func(ctx context.Context, p *page.Page, env Env) error

// Stage is a named, optionally disabled step of the sequence.
type Stage struct {
	Name    string
	Run     Func
	Enabled func(cfg config.JobConfig) bool
}

// Sequence returns the fixed stage order.
func Sequence() []Stage {
	return []Stage{
		{Name: "deskew", Run: Deskew},
		{Name: "crop", Run: Crop, Enabled: func(c config.JobConfig) bool { return c.Crop }},
		{Name: "classify_color", Run: ClassifyColor},
		{Name: "detect_blank", Run: DetectBlank, Enabled: func(c config.JobConfig) bool { return !c.KeepBlanks }},
		{Name: "post_process", Run: PostProcess, Enabled: func(c config.JobConfig) bool { return c.PostProcess }},
		{Name: "encode", Run: Encode},
	}
}

// Run applies stages to p left to right. A page whose artifact vanished is
// discarded as blank; any other stage error fails the page and is returned.
func Run(ctx context.Context, p *page.Page, env Env, stages []Stage) error {
	for _, s := range stages {
		if !p.Alive {
			return nil
		}
		if s.Enabled != nil && !s.Enabled(env.Config) {
			continue
		}
		if !p.Exists() {
			log.Warn().Int("page", p.Ordinal).Str("stage", s.Name).Msg("page artifact missing; treating as blank")
			return discard(p)
		}

		start := time.Now()
		err := s.Run(ctx, p, env)
		metrics.ObserveStage(s.Name, time.Since(start))
		if err == nil {
			continue
		}
		if scanerr.IsMissingArtifact(err) {
			log.Warn().Err(err).Int("page", p.Ordinal).Str("stage", s.Name).Msg("page artifact vanished; treating as blank")
			return discard(p)
		}
		p.Fail()
		return fmt.Errorf("%s %s: %w", s.Name, p, err)
	}
	return nil
}

func discard(p *page.Page) error {
	if err := p.Discard(); err != nil {
		p.Fail()
		return err
	}
	return nil
}

// replace runs req, then hands the page over to the request's output.
func replace(ctx context.Context, p *page.Page, env Env, req gateway.Request) error {
	out, err := env.Gateway.Invoke(ctx, req)
	if err != nil {
		return err
	}
	if len(out) > 0 {
		log.Debug().Int("page", p.Ordinal).Str("op", string(req.Operation())).Bytes("output", out).Msg("tool output")
	}
	return p.Replace(req.Output())
}
