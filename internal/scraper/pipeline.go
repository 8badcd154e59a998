package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/types"
)

// Stage identifies a step of the extraction pipeline
type Stage int

const (
	StageIntercepting Stage = iota
	StageDOM
	StageLiveText
	StageMarkup
	StagePersisted
	StageResolved
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIntercepting:
		return "intercepting"
	case StageDOM:
		return "dom"
	case StageLiveText:
		return "text-live"
	case StageMarkup:
		return "text-markup"
	case StagePersisted:
		return "persisted"
	case StageResolved:
		return "resolved"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StageOutcome records what one stage did during a run
type StageOutcome struct {
	Stage    Stage
	Attempt  types.Attempt
	Err      error
	Duration time.Duration
}

// Pipeline runs strategies in order until one yields a valid score.
// A Pipeline runs once per invocation and does not retry.
type Pipeline struct {
	stages []Strategy
	log    *logger.Logger
	now    func() time.Time

	state Stage
	trace []StageOutcome
}

// NewPipeline creates a pipeline over stages, evaluated in the given order
func NewPipeline(stages []Strategy, log *logger.Logger, now func() time.Time) *Pipeline {
	if log == nil {
		log = logger.Named("scraper")
	}
	if now == nil {
		now = time.Now
	}
	return &Pipeline{stages: stages, log: log, now: now}
}

// Run walks the stages. The first valid score resolves the run; a missing
// rating is derived from the score. Stage errors never escape: the only
// error Run returns wraps ErrTerminalExtraction.
func (p *Pipeline) Run(ctx context.Context) (types.Result, error) {
	p.trace = p.trace[:0]

	for _, st := range p.stages {
		p.state = st.Stage()
		start := time.Now()

		a, err := st.Attempt(ctx)

		p.trace = append(p.trace, StageOutcome{
			Stage:    st.Stage(),
			Attempt:  a,
			Err:      err,
			Duration: time.Since(start),
		})

		if a.Valid() {
			res := p.resolve(a)
			p.log.Infow("resolved fear & greed index",
				"stage", st.Stage().String(),
				"source", res.Source,
				"score", res.Score,
				"rating", res.Rating,
				"rating_derived", res.RatingDerived,
			)
			return res, nil
		}

		p.log.Debugw("stage yielded no data", "stage", st.Stage().String(), "error", err)
	}

	p.state = StageFailed
	p.log.Errorw("every extraction stage failed", "stages", len(p.stages))
	return types.Result{}, fmt.Errorf("%w: %s", ErrTerminalExtraction, p.summary())
}

func (p *Pipeline) resolve(a types.Attempt) types.Result {
	res := types.Result{
		Score:       a.Score,
		Rating:      a.Rating,
		LastUpdated: p.now().UTC(),
		Source:      a.Source,
	}
	if !res.Rating.Valid() {
		res.Rating = types.DeriveRating(a.Score)
		res.RatingDerived = true
	}

	p.state = StageResolved
	return res
}

// State returns the state the pipeline is in, or ended in
func (p *Pipeline) State() Stage {
	return p.state
}

// Trace returns the per-stage outcomes of the last run
func (p *Pipeline) Trace() []StageOutcome {
	out := make([]StageOutcome, len(p.trace))
	copy(out, p.trace)
	return out
}

// FellBack reports whether the last run was resolved from the persisted snapshot
func (p *Pipeline) FellBack() bool {
	n := len(p.trace)
	return p.state == StageResolved && n > 0 && p.trace[n-1].Stage == StagePersisted
}

func (p *Pipeline) summary() string {
	var parts []string
	for _, o := range p.trace {
		if o.Err != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", o.Stage, o.Err))
		}
	}
	if len(parts) == 0 {
		return "no stages configured"
	}
	return strings.Join(parts, "; ")
}
