// Package scanjob runs one end-to-end scan: optional acquisition, page
// finishing and assembly into a single document.
package scanjob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/assembler"
	"github.com/local/scanpdf/internal/config"
	"github.com/local/scanpdf/internal/filetype"
	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/metrics"
	"github.com/local/scanpdf/internal/page"
	"github.com/local/scanpdf/internal/pipeline"
	"github.com/local/scanpdf/internal/scanerr"
	"github.com/local/scanpdf/internal/stage"
	"github.com/local/scanpdf/internal/store"
)

// Deps are the collaborators of a job. Only Gateway is required.
type Deps struct {
	Gateway    gateway.Gateway
	Detector   *filetype.Detector
	Status     store.Reporter
	Locator    assembler.SaveLocator
	CountPages func(path string) (int, error)
	TextCheck  assembler.TextChecker
	Now        func() time.Time
}

// Result summarizes a finished job.
type Result struct {
	JobID     string
	Output    string
	Pages     int
	Surviving int
	Elapsed   time.Duration
}

// Job owns one working directory for its lifetime.
type Job struct {
	ID      string
	cfg     config.JobConfig
	deps    Deps
	workDir string
	// set once Run created the working directory
	ownsWorkDir bool
}

// New validates cfg and resolves the working directory. Scanning needs a
// fresh directory; finishing needs an existing one.
func New(cfg config.JobConfig, deps Deps) (*Job, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Gateway == nil {
		return nil, errors.New("scanjob: no gateway configured")
	}
	if deps.Detector == nil {
		deps.Detector = filetype.New()
	}
	if deps.Status == nil {
		deps.Status = store.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	dir := cfg.TmpDir
	if dir == "" {
		dir = config.DefaultTmpDir(deps.Now())
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	_, statErr := os.Stat(dir)
	switch {
	case cfg.Scan && statErr == nil:
		return nil, scanerr.Invariantf("temporary output directory %s already exists", dir)
	case !cfg.Scan && statErr != nil:
		return nil, scanerr.Invariantf("scan files directory %s does not exist", dir)
	}

	if cfg.PDFFile != "" {
		if cfg.PDFFile, err = filepath.Abs(cfg.PDFFile); err != nil {
			return nil, fmt.Errorf("resolve output file: %w", err)
		}
	}
	return &Job{ID: uuid.NewString(), cfg: cfg, deps: deps, workDir: dir}, nil
}

// WorkDir is the job's working directory.
func (j *Job) WorkDir() string { return j.workDir }

// Run executes the job. On failure no document is filed and the working
// directory is kept for diagnosis unless DiscardOnFailure is set.
func (j *Job) Run(ctx context.Context) (Result, error) {
	start := j.deps.Now()
	res := Result{JobID: j.ID}
	lg := log.With().Str("job_id", j.ID).Logger()
	lg.Info().Str("dir", j.workDir).Time("start", start).Msg("starting")

	err := j.run(ctx, &res)
	res.Elapsed = j.deps.Now().Sub(start)
	end := j.deps.Now()

	if err != nil {
		metrics.ObserveJob("failed", res.Elapsed)
		j.report(ctx, store.Status{State: store.StateFailed, Message: err.Error(), Start: &start, End: &end})
		j.discardOnFailure()
		return res, err
	}
	metrics.ObserveJob("success", res.Elapsed)
	j.report(ctx, store.Status{
		State: store.StateDone, Progress: 100, Pages: res.Pages, Start: &start, End: &end,
		Message:  res.Output,
		Metadata: map[string]interface{}{"device": j.cfg.Device, "dpi": j.cfg.DPI, "surviving": res.Surviving},
	})
	lg.Info().Str("elapsed", fmt.Sprintf("%.2fs", res.Elapsed.Seconds())).Msg("finished")
	return res, nil
}

func (j *Job) run(ctx context.Context, res *Result) error {
	if j.cfg.Scan {
		if err := os.MkdirAll(j.workDir, 0o755); err != nil {
			return fmt.Errorf("create working directory: %w", err)
		}
		j.ownsWorkDir = true
		j.report(ctx, store.Status{State: store.StateAcquiring})
		if err := j.acquire(ctx); err != nil {
			return err
		}
	}
	if !j.cfg.Finish {
		return nil
	}

	pages, err := pipeline.ListPages(j.workDir, j.deps.Detector)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return scanerr.Invariantf("no raw pages (%s without extension) found in %s", pipeline.PagePattern, j.workDir)
	}
	res.Pages = len(pages)
	if j.cfg.FaceUp {
		if err := pipeline.ReorderFaceUp(pages); err != nil {
			return err
		}
	}

	j.report(ctx, store.Status{State: store.StateProcessing, Pages: len(pages)})
	sched := &pipeline.Scheduler{
		Workers:  j.cfg.Workers,
		Stages:   stage.Sequence(),
		Env:      stage.Env{Config: j.cfg, Gateway: j.deps.Gateway},
		Observer: j.progress(ctx, len(pages)),
	}
	survivors, err := sched.Run(ctx, pages)
	if err != nil {
		return err
	}
	res.Surviving = len(survivors)

	j.report(ctx, store.Status{State: store.StateAssembling, Progress: 100, Pages: len(pages)})
	asm := &assembler.Assembler{
		Gateway:     j.deps.Gateway,
		Config:      j.cfg,
		WorkDir:     j.workDir,
		OwnsWorkDir: j.ownsWorkDir,
		Destination: j.cfg.PDFFile,
		Locator:     j.deps.Locator,
		CountPages:  j.deps.CountPages,
		TextCheck:   j.deps.TextCheck,
	}
	res.Output, err = asm.Assemble(ctx, survivors)
	return err
}

// progress counts finished pages into metrics and the status feed.
func (j *Job) progress(ctx context.Context, total int) pipeline.Observer {
	var mu sync.Mutex
	done := 0
	return func(p *page.Page, err error) {
		metrics.IncPage(outcome(p, err))

		mu.Lock()
		done++
		pct := 100
		if total > 0 {
			pct = done * 100 / total
		}
		mu.Unlock()
		j.report(ctx, store.Status{State: store.StateProcessing, Progress: pct, Pages: total})
	}
}

func outcome(p *page.Page, err error) string {
	switch {
	case err != nil || p.State == page.Failed:
		return "failed"
	case !p.Alive:
		return "blank"
	default:
		return p.Color.String()
	}
}

func (j *Job) report(ctx context.Context, st store.Status) {
	if err := j.deps.Status.Set(ctx, j.ID, st); err != nil {
		log.Debug().Err(err).Str("job_id", j.ID).Str("state", st.State).Msg("status update failed")
	}
}

func (j *Job) discardOnFailure() {
	if !j.cfg.DiscardOnFailure {
		if _, err := os.Stat(j.workDir); err == nil {
			log.Warn().Str("dir", j.workDir).Msg("working directory kept for diagnosis")
		}
		return
	}
	if err := os.RemoveAll(j.workDir); err != nil {
		log.Warn().Err(err).Str("dir", j.workDir).Msg("could not remove working directory")
	}
}
