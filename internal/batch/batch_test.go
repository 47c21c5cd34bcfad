// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

// --- fakes ---

type scriptedFetcher struct {
	results map[string]types.FetchResult
	order   []string
	phases  []types.Phase
	onFetch func(i int)
}

func (f *scriptedFetcher) FetchTLDR(_ context.Context, w types.Work, onPhase func(types.Phase)) types.FetchResult {
	if f.onFetch != nil {
		f.onFetch(len(f.order))
	}
	f.order = append(f.order, w.Key)
	for _, p := range f.phases {
		onPhase(p)
	}
	if r, ok := f.results[w.Key]; ok {
		return r
	}
	return types.FetchResult{Status: types.StatusNotFound}
}

type fakeOutcomes struct {
	m       map[string]types.Outcome
	removed []string
	err     error
}

func (f *fakeOutcomes) All(context.Context) (map[string]types.Outcome, error) {
	return f.m, f.err
}

func (f *fakeOutcomes) Remove(_ context.Context, keys ...string) error {
	f.removed = append(f.removed, keys...)
	for _, k := range keys {
		delete(f.m, k)
	}
	return nil
}

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestOrchestrator(f Fetcher, o Outcomes, cfg types.BatchConfig, events *[]Event) (*Orchestrator, *sleepRecorder) {
	var report Reporter
	if events != nil {
		report = func(e Event) { *events = append(*events, e) }
	}
	orc := New(f, o, cfg, report, nil)
	rec := &sleepRecorder{}
	orc.sleep = rec.sleep
	return orc, rec
}

func works(keys ...string) []types.Work {
	out := make([]types.Work, len(keys))
	for i, k := range keys {
		out[i] = types.Work{Key: k, Title: "Title " + k}
	}
	return out
}

// --- ProcessQueue ---

func TestProcessQueueAlternatingOutcomes(t *testing.T) {
	const n = 7
	queue := make([]types.Work, n)
	results := map[string]types.FetchResult{}
	for i := range queue {
		key := fmt.Sprintf("W%d", i)
		queue[i] = types.Work{Key: key, Title: "T"}
		if i%2 == 0 {
			results[key] = types.FetchResult{Status: types.StatusFound, Phase: types.PhaseMatch}
		}
	}
	f := &scriptedFetcher{results: results}
	orc, rec := newTestOrchestrator(f, &fakeOutcomes{}, types.BatchConfig{PacingDelay: 2 * time.Second}, nil)

	summary, err := orc.ProcessQueue(context.Background(), queue)
	require.NoError(t, err)

	assert.Equal(t, n, summary.Succeeded+summary.Failed)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 3, summary.Failed)
	assert.Zero(t, summary.Errored)
	assert.Len(t, rec.calls, n-1, "pacing only between works")
	for _, d := range rec.calls {
		assert.Equal(t, 2*time.Second, d)
	}
}

func TestProcessQueueOrderAndErrorsContinue(t *testing.T) {
	f := &scriptedFetcher{results: map[string]types.FetchResult{
		"A": {Status: types.StatusError, Err: errors.New("timeout")},
		"B": {Status: types.StatusFound, Phase: types.PhaseSearch},
	}}
	orc, _ := newTestOrchestrator(f, &fakeOutcomes{}, types.BatchConfig{}, nil)

	summary, err := orc.ProcessQueue(context.Background(), works("A", "B", "C"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, f.order)
	assert.Equal(t, types.BatchSummary{Succeeded: 1, Failed: 2, Errored: 1}, summary)
}

func TestProcessQueueEvents(t *testing.T) {
	f := &scriptedFetcher{
		phases:  []types.Phase{types.PhaseMatch, types.PhaseSearch},
		results: map[string]types.FetchResult{"A": {Status: types.StatusFound, Phase: types.PhaseSearch}},
	}
	var events []Event
	orc, _ := newTestOrchestrator(f, &fakeOutcomes{}, types.BatchConfig{}, &events)

	_, err := orc.ProcessQueue(context.Background(), works("A"))
	require.NoError(t, err)

	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []EventKind{EventStarted, EventPhase, EventPhase, EventDone, EventFinished}, kinds)
	assert.Equal(t, types.PhaseMatch, events[1].Phase)
	assert.Equal(t, types.PhaseSearch, events[2].Phase)
	assert.Equal(t, types.StatusFound, events[3].Result.Status)
	assert.Equal(t, 1, events[4].Summary.Succeeded)
}

func TestProcessQueueCancelBetweenWorks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &scriptedFetcher{onFetch: func(i int) {
		if i == 1 {
			cancel()
		}
	}}
	orc, _ := newTestOrchestrator(f, &fakeOutcomes{}, types.BatchConfig{PacingDelay: -1}, nil)

	summary, err := orc.ProcessQueue(ctx, works("A", "B", "C"))
	assert.ErrorIs(t, err, context.Canceled)
	// B was in flight when cancelled and still completes.
	assert.Equal(t, []string{"A", "B"}, f.order)
	assert.Equal(t, 2, summary.Total())
}

func TestProcessQueueNegativeDelayDisablesPacing(t *testing.T) {
	orc, rec := newTestOrchestrator(&scriptedFetcher{}, &fakeOutcomes{}, types.BatchConfig{PacingDelay: -1}, nil)
	_, err := orc.ProcessQueue(context.Background(), works("A", "B"))
	require.NoError(t, err)
	assert.Empty(t, rec.calls)
}

// --- Pending / Update ---

func TestPendingFilters(t *testing.T) {
	outcomes := &fakeOutcomes{m: map[string]types.Outcome{
		"done":    types.Resolved("N1"),
		"missing": types.NotFound(),
	}}
	orc, _ := newTestOrchestrator(&scriptedFetcher{}, outcomes, types.BatchConfig{}, nil)
	queue := []types.Work{
		{Key: "new", Title: "New"},
		{Key: "done", Title: "Done"},
		{Key: "untitled"},
		{Key: "missing", Title: "Missing"},
	}

	pending, err := orc.Pending(context.Background(), queue, false)
	require.NoError(t, err)
	assert.Equal(t, []types.Work{{Key: "new", Title: "New"}}, pending)

	forced, err := orc.Pending(context.Background(), queue, true)
	require.NoError(t, err)
	assert.Len(t, forced, 3, "force keeps resolved works but still drops untitled ones")
}

func TestPendingOutcomeError(t *testing.T) {
	orc, _ := newTestOrchestrator(&scriptedFetcher{}, &fakeOutcomes{err: errors.New("corrupt")}, types.BatchConfig{}, nil)
	_, err := orc.Update(context.Background(), works("A"), false)
	assert.Error(t, err)
}

func TestUpdateNothingPending(t *testing.T) {
	var events []Event
	f := &scriptedFetcher{}
	orc, _ := newTestOrchestrator(f, &fakeOutcomes{m: map[string]types.Outcome{"A": types.NotFound()}}, types.BatchConfig{}, &events)

	summary, err := orc.Update(context.Background(), works("A"), false)
	require.NoError(t, err)
	assert.Zero(t, summary.Total())
	assert.Empty(t, f.order)
	assert.Empty(t, events)
}

// --- notifications ---

func TestHandleAddedWaitsThenUpdates(t *testing.T) {
	f := &scriptedFetcher{}
	orc, rec := newTestOrchestrator(f, &fakeOutcomes{}, types.BatchConfig{PacingDelay: -1}, nil)

	summary, err := orc.HandleAdded(context.Background(), works("A", "B"))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultAddDelay}, rec.calls)
	assert.Equal(t, []string{"A", "B"}, f.order)
	assert.Equal(t, 2, summary.Failed)
}

func TestHandleDeletedRemovesOutcomes(t *testing.T) {
	outcomes := &fakeOutcomes{m: map[string]types.Outcome{"A": types.NotFound(), "B": types.Resolved("N")}}
	orc, _ := newTestOrchestrator(&scriptedFetcher{}, outcomes, types.BatchConfig{}, nil)

	require.NoError(t, orc.HandleDeleted(context.Background(), []string{"A"}))
	assert.Equal(t, []string{"A"}, outcomes.removed)
	assert.Contains(t, outcomes.m, "B")
}
