// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outcome

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

// fakeNotes is an in-memory NoteWriter.
type fakeNotes struct {
	bodies  map[string]string   // note key -> body
	byWork  map[string][]string // work key -> note keys
	created int
	saveErr error
	onSave  func()
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{bodies: map[string]string{}, byWork: map[string][]string{}}
}

func (f *fakeNotes) Notes(_ context.Context, workKey string) ([]string, error) {
	return slices.Clone(f.byWork[workKey]), nil
}

func (f *fakeNotes) SaveNote(_ context.Context, workKey, noteKey, body string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if noteKey == "" {
		f.created++
		noteKey = fmt.Sprintf("N%03d", f.created)
		f.byWork[workKey] = append(f.byWork[workKey], noteKey)
	}
	f.bodies[noteKey] = body
	if f.onSave != nil {
		f.onSave()
	}
	return noteKey, nil
}

func (f *fakeNotes) DeleteNote(_ context.Context, noteKey string) error {
	delete(f.bodies, noteKey)
	for w := range f.byWork {
		f.detach(w, noteKey)
	}
	return nil
}

func (f *fakeNotes) detach(workKey, noteKey string) {
	f.byWork[workKey] = slices.DeleteFunc(f.byWork[workKey], func(k string) bool { return k == noteKey })
}

func newTestStore(t *testing.T) (*Store, *fakeNotes, *FileSubstrate) {
	t.Helper()
	sub := NewFileSubstrate(filepath.Join(t.TempDir(), "outcomes.yaml"))
	notes := newFakeNotes()
	return NewStore(sub, notes, nil), notes, sub
}

func TestGetDefaultsToUnresolved(t *testing.T) {
	s, _, _ := newTestStore(t)
	o, err := s.Get(context.Background(), "W1")
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeUnresolved, o.State)
}

func TestCommitFoundCreatesNote(t *testing.T) {
	s, notes, _ := newTestStore(t)
	ctx := context.Background()

	noteKey, err := s.CommitFound(ctx, "W1", "A survey of neural nets.")
	require.NoError(t, err)

	assert.Equal(t, 1, notes.created)
	assert.Equal(t, "<p>TL;DR</p>\n<p>A survey of neural nets.</p>", notes.bodies[noteKey])

	o, err := s.Get(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, types.Resolved(noteKey), o)
}

func TestCommitFoundReusesAttachedNote(t *testing.T) {
	s, notes, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.CommitFound(ctx, "W1", "old summary")
	require.NoError(t, err)
	second, err := s.CommitFound(ctx, "W1", "new summary")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, notes.created, "no second note")
	assert.Len(t, notes.byWork["W1"], 1)
	assert.Contains(t, notes.bodies[first], "new summary")
}

func TestCommitFoundReplacesDetachedNote(t *testing.T) {
	s, notes, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.CommitFound(ctx, "W1", "old summary")
	require.NoError(t, err)
	notes.detach("W1", first)

	second, err := s.CommitFound(ctx, "W1", "new summary")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, notes.created)
	o, err := s.Get(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, types.Resolved(second), o)
}

func TestCommitFoundAfterNotFound(t *testing.T) {
	s, notes, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CommitNotFound(ctx, "W1"))
	noteKey, err := s.CommitFound(ctx, "W1", "late summary")
	require.NoError(t, err)

	assert.Equal(t, 1, notes.created)
	o, err := s.Get(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, types.Resolved(noteKey), o)
}

func TestCommitFoundNoteFailureLeavesOutcome(t *testing.T) {
	s, notes, _ := newTestStore(t)
	ctx := context.Background()
	notes.saveErr = errors.New("disk full")

	_, err := s.CommitFound(ctx, "W1", "text")
	require.Error(t, err)

	o, err := s.Get(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeUnresolved, o.State)
}

// flakySubstrate fails the first failures Modify calls.
type flakySubstrate struct {
	Substrate
	failures int
}

func (f *flakySubstrate) Modify(ctx context.Context, fn func(map[string]types.Outcome) error) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.Substrate.Modify(ctx, fn)
}

func TestCommitFoundOutcomeFailureRemovesNewNote(t *testing.T) {
	sub := &flakySubstrate{
		Substrate: NewFileSubstrate(filepath.Join(t.TempDir(), "outcomes.yaml")),
		failures:  1,
	}
	notes := newFakeNotes()
	s := NewStore(sub, notes, nil)
	ctx := context.Background()

	_, err := s.CommitFound(ctx, "W1", "first try")
	require.Error(t, err)
	assert.Empty(t, notes.byWork["W1"])

	o, err := s.Get(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeUnresolved, o.State)

	noteKey, err := s.CommitFound(ctx, "W1", "second try")
	require.NoError(t, err)
	assert.Equal(t, []string{noteKey}, notes.byWork["W1"])
}

func TestCommitFoundOutcomeFailureKeepsReusedNote(t *testing.T) {
	sub := &flakySubstrate{Substrate: NewFileSubstrate(filepath.Join(t.TempDir(), "outcomes.yaml"))}
	notes := newFakeNotes()
	s := NewStore(sub, notes, nil)
	ctx := context.Background()

	first, err := s.CommitFound(ctx, "W1", "old summary")
	require.NoError(t, err)

	sub.failures = 1
	_, err = s.CommitFound(ctx, "W1", "new summary")
	require.Error(t, err)

	assert.Equal(t, []string{first}, notes.byWork["W1"])
	o, err := s.Get(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, types.Resolved(first), o)
}

func TestCommitFoundRecordsOutcomeAfterCancel(t *testing.T) {
	s, notes, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	notes.onSave = cancel

	noteKey, err := s.CommitFound(ctx, "W1", "summary")
	require.NoError(t, err)

	o, err := s.Get(context.Background(), "W1")
	require.NoError(t, err)
	assert.Equal(t, types.Resolved(noteKey), o)
	assert.Equal(t, []string{noteKey}, notes.byWork["W1"])
}

func TestCommitNotFoundAndRemove(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CommitNotFound(ctx, "W1"))
	require.NoError(t, s.CommitNotFound(ctx, "W2"))

	o, err := s.Get(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, types.NotFound(), o)

	require.NoError(t, s.Remove(ctx, "W1", "unknown"))
	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"W2"}, slices.Sorted(maps.Keys(all)))
}

func TestFormatNoteEscapes(t *testing.T) {
	assert.Equal(t, "<p>TL;DR</p>\n<p>a &lt; b &amp; c</p>", FormatNote("a < b & c"))
}
