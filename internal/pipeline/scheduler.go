// Package pipeline fans pages out over a bounded worker pool and collects
// the survivors in sequence order.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/scanpdf/internal/page"
	"github.com/local/scanpdf/internal/stage"
)

// Observer is told about every page that reached a terminal state.
type Observer func(p *page.Page, err error)

// Scheduler runs the stage sequence over every page, one page per task.
type Scheduler struct {
	Workers  int
	Stages   []stage.Stage
	Env      stage.Env
	Observer Observer
}

// Run processes pages and blocks until every dispatched task is done.
//
// The first failure stops dispatch and is returned; tasks already running
// complete normally and are not cancelled. The returned survivors keep the
// order of pages, whatever order the tasks finished in.
func (s *Scheduler) Run(ctx context.Context, pages []*page.Page) ([]*page.Page, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	stages := s.Stages
	if stages == nil {
		stages = stage.Sequence()
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	log.Info().Int("pages", len(pages)).Int("workers", workers).Msg("processing pages")
	for _, p := range pages {
		if gctx.Err() != nil {
			break
		}
		p := p
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			// ctx, not gctx: a sibling failure must not kill this page's tools
			err := stage.Run(ctx, p, s.Env, stages)
			if s.Observer != nil {
				s.Observer(p, err)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("page processing failed")
		return nil, err
	}

	survivors := make([]*page.Page, 0, len(pages))
	for _, p := range pages {
		if p.Alive && p.State == page.Encoded {
			survivors = append(survivors, p)
		}
	}
	log.Info().Int("pages", len(pages)).Int("surviving", len(survivors)).Dur("duration", time.Since(start)).Msg("pages processed")
	return survivors, nil
}
