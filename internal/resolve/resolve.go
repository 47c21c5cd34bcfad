// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve finds a TL;DR for one library work: it tries the
// service's best title match, falls back to ranked search, verifies the
// candidate against the work, and commits the outcome.
package resolve

import (
	"context"
	"log/slog"

	"github.com/pdiddy/tldr-engine/internal/logging"
	"github.com/pdiddy/tldr-engine/internal/search"
	"github.com/pdiddy/tldr-engine/internal/similarity"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

// Searcher queries the metadata service.
type Searcher interface {
	MatchByTitle(ctx context.Context, title string) (*types.Candidate, error)
	SearchByTitle(ctx context.Context, title string, limit int) ([]types.Candidate, error)
}

// Committer records resolution outcomes.
type Committer interface {
	CommitFound(ctx context.Context, key, tldr string) (string, error)
	CommitNotFound(ctx context.Context, key string) error
}

// Resolver runs the match-then-search protocol for single works.
type Resolver struct {
	searcher    Searcher
	outcomes    Committer
	searchLimit int
	logger      *slog.Logger
}

// NewResolver returns a Resolver. A non-positive cfg.SearchLimit uses
// search.DefaultSearchLimit; logger may be nil.
func NewResolver(searcher Searcher, outcomes Committer, cfg types.ScholarConfig, logger *slog.Logger) *Resolver {
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = search.DefaultSearchLimit
	}
	return &Resolver{
		searcher:    searcher,
		outcomes:    outcomes,
		searchLimit: limit,
		logger:      logging.NewComponentLogger(logger, "resolve"),
	}
}

// FetchTLDR resolves w. onPhase, when non-nil, is told when each protocol
// phase starts; it never affects the result.
//
// A work without a title is not_found without any request. A failed request
// ends the attempt with StatusError and writes no outcome, so the work stays
// eligible for a later run. An exhausted search records NotFound.
func (r *Resolver) FetchTLDR(ctx context.Context, w types.Work, onPhase func(types.Phase)) types.FetchResult {
	if w.Title == "" {
		return types.FetchResult{Status: types.StatusNotFound}
	}
	logger := r.logger.With(slog.String("work_key", w.Key))

	notify(onPhase, types.PhaseMatch)
	match, err := r.searcher.MatchByTitle(ctx, w.Title)
	if err != nil {
		return r.fail(logger, types.PhaseMatch, err)
	}
	if match != nil && match.HasTLDR() && match.Title != "" && similarity.IsSimilar(match.Title, w.Title) {
		return r.accept(ctx, logger, w, *match, types.PhaseMatch)
	}

	notify(onPhase, types.PhaseSearch)
	candidates, err := r.searcher.SearchByTitle(ctx, w.Title, r.searchLimit)
	if err != nil {
		return r.fail(logger, types.PhaseSearch, err)
	}
	for _, c := range candidates {
		if acceptable(c, w) {
			return r.accept(ctx, logger, w, c, types.PhaseSearch)
		}
	}

	if err := r.outcomes.CommitNotFound(ctx, w.Key); err != nil {
		logger.Error("recording not-found outcome failed", logging.Error(err))
		return types.FetchResult{Status: types.StatusError, Err: err}
	}
	logger.Debug("no acceptable candidate", slog.Int("candidates", len(candidates)))
	return types.FetchResult{Status: types.StatusNotFound}
}

// acceptable reports whether a search-phase candidate may be taken for w.
// Abstract similarity alone is enough.
func acceptable(c types.Candidate, w types.Work) bool {
	if !c.HasTLDR() {
		return false
	}
	if c.Title != "" && similarity.IsSimilar(c.Title, w.Title) {
		return true
	}
	return c.Abstract != "" && w.Abstract != "" && similarity.IsSimilar(c.Abstract, w.Abstract)
}

func (r *Resolver) accept(ctx context.Context, logger *slog.Logger, w types.Work, c types.Candidate, phase types.Phase) types.FetchResult {
	noteKey, err := r.outcomes.CommitFound(ctx, w.Key, c.TLDR)
	if err != nil {
		logger.Error("saving tldr failed", slog.String("phase", string(phase)), logging.Error(err))
		return types.FetchResult{Status: types.StatusError, Err: err}
	}
	logger.Debug("tldr found", slog.String("phase", string(phase)), slog.String("note_key", noteKey))
	return types.FetchResult{Status: types.StatusFound, Phase: phase, NoteKey: noteKey}
}

func (r *Resolver) fail(logger *slog.Logger, phase types.Phase, err error) types.FetchResult {
	logger.Warn("Semantic Scholar request failed",
		slog.String("phase", string(phase)),
		slog.Bool("transport", search.IsTransport(err)),
		logging.Error(err))
	return types.FetchResult{Status: types.StatusError, Err: err}
}

func notify(onPhase func(types.Phase), p types.Phase) {
	if onPhase != nil {
		onPhase(p)
	}
}
