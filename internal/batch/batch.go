// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives TL;DR resolution over a queue of works, one work at
// a time, pacing requests to the metadata service and reporting progress.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/tldr-engine/internal/logging"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

const (
	// DefaultPacingDelay separates consecutive works.
	DefaultPacingDelay = 1 * time.Second

	// DefaultAddDelay lets newly added works settle before resolution.
	DefaultAddDelay = 3 * time.Second
)

// Fetcher resolves a single work.
type Fetcher interface {
	FetchTLDR(ctx context.Context, w types.Work, onPhase func(types.Phase)) types.FetchResult
}

// Outcomes is the part of the outcome store the orchestrator needs.
type Outcomes interface {
	All(ctx context.Context) (map[string]types.Outcome, error)
	Remove(ctx context.Context, keys ...string) error
}

// EventKind identifies a progress event.
type EventKind int

const (
	// EventStarted fires before a work is resolved.
	EventStarted EventKind = iota
	// EventPhase fires when the resolution protocol enters a phase.
	EventPhase
	// EventDone fires after a work is resolved.
	EventDone
	// EventFinished fires once after the last work.
	EventFinished
)

// Event reports batch progress. Index is zero-based within the queue.
type Event struct {
	Kind    EventKind
	Index   int
	Total   int
	Work    types.Work
	Phase   types.Phase
	Result  types.FetchResult
	Summary types.BatchSummary
}

// Reporter receives progress events. It must not block for long; its return
// has no effect on processing.
type Reporter func(Event)

// Orchestrator runs the resolution protocol over queues of works.
type Orchestrator struct {
	fetcher  Fetcher
	outcomes Outcomes
	cfg      types.BatchConfig
	report   Reporter
	logger   *slog.Logger

	// sleep waits for d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns an Orchestrator. Zero delays in cfg fall back to the
// defaults; use a negative delay to disable waiting. report and logger may
// be nil.
func New(fetcher Fetcher, outcomes Outcomes, cfg types.BatchConfig, report Reporter, logger *slog.Logger) *Orchestrator {
	if cfg.PacingDelay == 0 {
		cfg.PacingDelay = DefaultPacingDelay
	}
	if cfg.AddDelay == 0 {
		cfg.AddDelay = DefaultAddDelay
	}
	if report == nil {
		report = func(Event) {}
	}
	return &Orchestrator{
		fetcher:  fetcher,
		outcomes: outcomes,
		cfg:      cfg,
		report:   report,
		logger:   logging.NewComponentLogger(logger, "batch"),
		sleep:    sleepCtx,
	}
}

// Pending filters works down to those worth resolving: works without a
// title are dropped, and unless force is set so are works that already
// have an outcome.
func (o *Orchestrator) Pending(ctx context.Context, works []types.Work, force bool) ([]types.Work, error) {
	var existing map[string]types.Outcome
	if !force {
		var err error
		if existing, err = o.outcomes.All(ctx); err != nil {
			return nil, err
		}
	}

	pending := make([]types.Work, 0, len(works))
	for _, w := range works {
		if w.Title == "" {
			continue
		}
		if _, done := existing[w.Key]; done {
			continue
		}
		pending = append(pending, w)
	}
	return pending, nil
}

// ProcessQueue resolves works in order, each one fully before the next,
// waiting the pacing delay between works. A failure of one work never stops
// the batch. Cancellation stops the batch before the next work starts and the
// summary so far is returned with ctx.Err(). A request still in flight is
// abandoned and that work ends with an error result and no outcome; a work
// whose note is already saved still gets its outcome recorded.
func (o *Orchestrator) ProcessQueue(ctx context.Context, works []types.Work) (types.BatchSummary, error) {
	var summary types.BatchSummary
	total := len(works)

	for i, w := range works {
		if i > 0 && o.cfg.PacingDelay > 0 {
			if err := o.sleep(ctx, o.cfg.PacingDelay); err != nil {
				return summary, err
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		o.report(Event{Kind: EventStarted, Index: i, Total: total, Work: w})
		result := o.fetcher.FetchTLDR(ctx, w, func(p types.Phase) {
			o.report(Event{Kind: EventPhase, Index: i, Total: total, Work: w, Phase: p})
		})

		switch result.Status {
		case types.StatusFound:
			summary.Succeeded++
		case types.StatusError:
			summary.Failed++
			summary.Errored++
			o.logger.Warn("tldr fetch failed",
				slog.String("work_key", w.Key),
				logging.Error(result.Err))
		default:
			summary.Failed++
		}
		o.report(Event{Kind: EventDone, Index: i, Total: total, Work: w, Result: result, Summary: summary})
	}

	o.report(Event{Kind: EventFinished, Total: total, Summary: summary})
	o.logger.Info("batch finished",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("errored", summary.Errored))
	return summary, nil
}

// Update resolves the pending subset of works.
func (o *Orchestrator) Update(ctx context.Context, works []types.Work, force bool) (types.BatchSummary, error) {
	pending, err := o.Pending(ctx, works, force)
	if err != nil {
		return types.BatchSummary{}, err
	}
	if len(pending) == 0 {
		return types.BatchSummary{}, nil
	}
	return o.ProcessQueue(ctx, pending)
}

// HandleAdded resolves newly added works after the add delay.
func (o *Orchestrator) HandleAdded(ctx context.Context, works []types.Work) (types.BatchSummary, error) {
	if len(works) == 0 {
		return types.BatchSummary{}, nil
	}
	if o.cfg.AddDelay > 0 {
		if err := o.sleep(ctx, o.cfg.AddDelay); err != nil {
			return types.BatchSummary{}, err
		}
	}
	return o.Update(ctx, works, false)
}

// HandleDeleted forgets the outcomes of deleted works.
func (o *Orchestrator) HandleDeleted(ctx context.Context, keys []string) error {
	return o.outcomes.Remove(ctx, keys...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
