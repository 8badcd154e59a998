// Package app wires configuration, browser, pipeline and storage into the
// run-once job and the scheduled watch loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rem79/fear-greed-index/internal/config"
	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/metrics"
	"github.com/rem79/fear-greed-index/internal/scheduler"
	"github.com/rem79/fear-greed-index/internal/scraper"
	"github.com/rem79/fear-greed-index/internal/store"
	"github.com/rem79/fear-greed-index/internal/types"
)

// How long debug captures may take once a run is over
const artifactTimeout = 10 * time.Second

// App holds the application state
type App struct {
	cfg       *config.Config
	rules     scraper.Rules
	opener    Opener
	snapshot  *store.SnapshotFile
	history   *store.History   // nil when the history is unavailable
	artifacts *store.Artifacts // nil unless debug.save_artifacts is set
	log       *logger.Logger
	now       func() time.Time
}

// Options overrides collaborators, mostly for tests
type Options struct {
	Opener    Opener
	History   *store.History
	Artifacts *store.Artifacts
	Now       func() time.Time
}

// New creates a new App instance. A history database that cannot be opened
// is logged and skipped.
func New(cfg *config.Config, opts Options) (*App, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	log := logger.Named("app")

	a := &App{
		cfg:       cfg,
		rules:     rules,
		opener:    opts.Opener,
		snapshot:  store.NewSnapshotFile(cfg.Output.Path),
		history:   opts.History,
		artifacts: opts.Artifacts,
		log:       log,
		now:       opts.Now,
	}
	if a.opener == nil {
		a.opener = NewOpener(cfg.Browser)
	}
	if a.now == nil {
		a.now = time.Now
	}

	if a.history == nil {
		if path, err := cfg.HistoryPath(); err != nil {
			log.Warnw("history disabled", "error", err)
		} else if h, err := store.OpenHistory(path); err != nil {
			log.Warnw("history disabled", "path", path, "error", err)
		} else {
			a.history = h
		}
	}

	if a.artifacts == nil && cfg.Debug.SaveArtifacts {
		if dir, err := config.CacheDir(); err != nil {
			log.Warnw("debug artifacts disabled", "error", err)
		} else {
			a.artifacts = store.NewArtifacts(dir)
		}
	}

	return a, nil
}

// Close releases the history database
func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// RunOnce performs one extraction: load the page, run the pipeline and
// persist the result. A navigation failure does not abort the run, since
// the persisted snapshot may still resolve it. The returned error wraps
// scraper.ErrTerminalExtraction when nothing resolved.
func (a *App) RunOnce(ctx context.Context) (types.Result, error) {
	runID := uuid.New()
	log := a.log.With("run_id", runID.String())
	start := time.Now()

	if d := a.cfg.Browser.RunTimeout.Std(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	ic := scraper.NewInterceptor(a.rules, logger.Named("scraper"))
	ic.Reset()

	page, closePage, err := a.opener.Open(ctx, a.cfg.Target.URL, ic)
	defer closePage()
	if err != nil {
		log.Warnw("failed to load page, live strategies skipped", "url", a.cfg.Target.URL, "error", err)
		page = nil
	}

	opts := scraper.Options{
		Rules:     a.rules,
		Page:      page,
		Snapshots: a.snapshot,
		Logger:    logger.Named("scraper"),
		Now:       a.now,
	}
	if a.opener.Intercepts() {
		opts.Interceptor = ic
	}

	p := scraper.New(opts)
	res, runErr := p.Run(ctx)

	for _, o := range p.Trace() {
		if !o.Attempt.Valid() {
			metrics.RecordMiss(o.Stage.String())
		}
	}

	if runErr != nil {
		metrics.RecordFailed(time.Since(start))
		a.saveArtifacts(ctx, runID, page, ic, p)
		return types.Result{}, runErr
	}

	if err := a.snapshot.Write(res); err != nil {
		return res, fmt.Errorf("failed to persist result: %w", err)
	}
	log.Infow("wrote snapshot", "path", a.snapshot.Path(), "score", res.Score, "rating", res.Rating)

	if a.history != nil {
		if _, err := a.history.Append(runID, res); err != nil {
			log.Warnw("failed to record run", "error", err)
		}
	}

	trace := p.Trace()
	metrics.RecordResolved(trace[len(trace)-1].Stage.String(), string(res.Source), res.Score, time.Since(start))

	if p.FellBack() {
		a.saveArtifacts(ctx, runID, page, ic, p)
	}

	return res, nil
}

type traceEntry struct {
	Stage    string `json:"stage"`
	Source   string `json:"source,omitempty"`
	Score    *int   `json:"score,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// saveArtifacts captures what the page looked like when live extraction
// failed. Failures here are only logged.
func (a *App) saveArtifacts(ctx context.Context, runID uuid.UUID, page scraper.Page, ic *scraper.Interceptor, p *scraper.Pipeline) {
	if a.artifacts == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
	defer cancel()

	var saved []string
	save := func(path string, err error) {
		if err != nil {
			a.log.Warnw("failed to save artifact", "error", err)
			return
		}
		saved = append(saved, path)
	}

	var entries []traceEntry
	for _, o := range p.Trace() {
		e := traceEntry{Stage: o.Stage.String(), Source: string(o.Attempt.Source), Duration: o.Duration.String()}
		if o.Attempt.HasScore {
			score := o.Attempt.Score
			e.Score = &score
		}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		entries = append(entries, e)
	}
	save(store.SaveJSON(a.artifacts, store.ArtifactTrace, runID, entries))

	if payload, ok := ic.Last(); ok {
		save(a.artifacts.SaveText(store.ArtifactPayload, runID, payload.Body, ".json"))
	}

	if page != nil {
		if markup, err := page.RawMarkup(ctx); err == nil {
			save(a.artifacts.SaveText(store.ArtifactMarkup, runID, markup, ".html"))
		}
		if text, err := page.FullText(ctx); err == nil {
			save(a.artifacts.SaveText(store.ArtifactText, runID, text, ".txt"))
		}
	}

	a.log.Infow("saved debug artifacts", "files", saved)
}

// Watch runs the job on the configured cron schedule until ctx is done.
// It runs once immediately, and serves /metrics when metrics.addr is set.
func (a *App) Watch(ctx context.Context) error {
	metrics.Init()

	if addr := a.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go func() {
			a.log.Infow("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Errorw("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	// The pipeline applies the run timeout itself. The margin covers
	// persistence and artifact capture.
	s, err := scheduler.New(a.cfg.Schedule.Timezone, a.cfg.Browser.RunTimeout.Std()+artifactTimeout+time.Minute)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		_, err := a.RunOnce(ctx)
		return err
	}
	if err := s.AddJob("extract", a.cfg.Schedule.Cron, job); err != nil {
		return err
	}

	if err := s.RunNow(ctx, "extract", job); err != nil {
		a.log.Errorw("initial run failed", "error", err)
	}

	s.Start()
	for _, j := range s.ListJobs() {
		a.log.Infow("job scheduled", "job", j.Name, "next_run", j.NextRun)
	}

	<-ctx.Done()
	s.RemoveJob("extract")
	<-s.Stop().Done()

	return nil
}
