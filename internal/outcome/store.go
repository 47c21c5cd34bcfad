// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outcome persists the result of resolving a TL;DR for each work
// and guarantees that a work never accumulates more than one TL;DR note.
package outcome

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"slices"

	"github.com/pdiddy/tldr-engine/internal/logging"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

// Substrate is the durable mapping from work key to outcome. Modify must
// apply fn to the current mapping and persist the result atomically with
// respect to other Modify calls; when fn returns an error nothing is
// written.
type Substrate interface {
	Load(ctx context.Context) (map[string]types.Outcome, error)
	Modify(ctx context.Context, fn func(map[string]types.Outcome) error) error
}

// NoteWriter is the library side of note creation.
type NoteWriter interface {
	// Notes lists the keys of notes attached to workKey.
	Notes(ctx context.Context, workKey string) ([]string, error)

	// SaveNote overwrites noteKey in place when it is non-empty, otherwise
	// creates a new note under workKey. It returns the key of the saved note.
	SaveNote(ctx context.Context, workKey, noteKey, body string) (string, error)

	// DeleteNote removes a note. Unknown keys are not an error.
	DeleteNote(ctx context.Context, noteKey string) error
}

// Store implements the outcome operations on top of a Substrate.
type Store struct {
	substrate Substrate
	notes     NoteWriter
	logger    *slog.Logger
}

// NewStore returns a Store. logger may be nil.
func NewStore(substrate Substrate, notes NoteWriter, logger *slog.Logger) *Store {
	return &Store{
		substrate: substrate,
		notes:     notes,
		logger:    logging.NewComponentLogger(logger, "outcome"),
	}
}

// Get returns the outcome for key, or an unresolved outcome when none is
// recorded.
func (s *Store) Get(ctx context.Context, key string) (types.Outcome, error) {
	all, err := s.substrate.Load(ctx)
	if err != nil {
		return types.Outcome{}, fmt.Errorf("loading outcomes: %w", err)
	}
	if o, ok := all[key]; ok {
		return o, nil
	}
	return types.Outcome{State: types.OutcomeUnresolved}, nil
}

// All returns every recorded outcome.
func (s *Store) All(ctx context.Context) (map[string]types.Outcome, error) {
	all, err := s.substrate.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading outcomes: %w", err)
	}
	return all, nil
}

// CommitFound writes tldr into the work's TL;DR note and records the work
// as resolved. The previously recorded note is overwritten in place if it
// is still attached to the same work; otherwise a new note is created.
func (s *Store) CommitFound(ctx context.Context, key, tldr string) (string, error) {
	existing, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}

	reuse, err := s.attachedNote(ctx, key, existing)
	if err != nil {
		return "", err
	}

	noteKey, err := s.notes.SaveNote(ctx, key, reuse, FormatNote(tldr))
	if err != nil {
		return "", fmt.Errorf("saving note for %s: %w", key, err)
	}

	// Once the note exists the outcome must follow it, cancelled or not.
	commitCtx := context.WithoutCancel(ctx)
	err = s.substrate.Modify(commitCtx, func(m map[string]types.Outcome) error {
		m[key] = types.Resolved(noteKey)
		return nil
	})
	if err != nil {
		if noteKey != reuse {
			s.dropNote(commitCtx, key, noteKey)
		}
		return "", fmt.Errorf("recording outcome for %s: %w", key, err)
	}

	s.logger.Debug("committed tldr",
		slog.String("work_key", key),
		slog.String("note_key", noteKey),
		slog.Bool("reused", reuse != ""))
	return noteKey, nil
}

// dropNote deletes a note created for an outcome that could not be
// recorded, so the next attempt does not leave a second note on the work.
func (s *Store) dropNote(ctx context.Context, key, noteKey string) {
	if err := s.notes.DeleteNote(ctx, noteKey); err != nil {
		s.logger.Error("removing unrecorded note failed",
			slog.String("work_key", key),
			slog.String("note_key", noteKey),
			logging.Error(err))
	}
}

// attachedNote returns the recorded note key when it still belongs to key.
func (s *Store) attachedNote(ctx context.Context, key string, existing types.Outcome) (string, error) {
	if !existing.IsResolved() {
		return "", nil
	}
	attached, err := s.notes.Notes(ctx, key)
	if err != nil {
		return "", fmt.Errorf("listing notes for %s: %w", key, err)
	}
	if slices.Contains(attached, existing.NoteKey) {
		return existing.NoteKey, nil
	}
	s.logger.Debug("recorded note no longer attached",
		slog.String("work_key", key),
		slog.String("note_key", existing.NoteKey))
	return "", nil
}

// CommitNotFound records that a resolution attempt found no acceptable
// candidate for key.
func (s *Store) CommitNotFound(ctx context.Context, key string) error {
	err := s.substrate.Modify(ctx, func(m map[string]types.Outcome) error {
		m[key] = types.NotFound()
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording outcome for %s: %w", key, err)
	}
	return nil
}

// Remove forgets the outcomes of deleted works. Unknown keys are ignored.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.substrate.Modify(ctx, func(m map[string]types.Outcome) error {
		for _, k := range keys {
			delete(m, k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("removing outcomes: %w", err)
	}
	return nil
}

// FormatNote renders the body of a TL;DR note.
func FormatNote(tldr string) string {
	return "<p>TL;DR</p>\n<p>" + html.EscapeString(tldr) + "</p>"
}
