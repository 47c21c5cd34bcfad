// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"fmt"
	"maps"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

// OutcomeTable stores resolution outcomes in the library database's
// outcomes table. It satisfies outcome.Substrate.
type OutcomeTable struct {
	db *sql.DB
}

// Outcomes returns the outcome table of l.
func (l *Library) Outcomes() *OutcomeTable {
	return &OutcomeTable{db: l.db}
}

// Load returns every recorded outcome.
func (t *OutcomeTable) Load(ctx context.Context) (map[string]types.Outcome, error) {
	return loadOutcomes(ctx, t.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadOutcomes(ctx context.Context, q querier) (map[string]types.Outcome, error) {
	rows, err := q.QueryContext(ctx, `SELECT work_key, state, note_key FROM outcomes`)
	if err != nil {
		return nil, fmt.Errorf("reading outcomes: %w", err)
	}
	defer rows.Close()

	m := make(map[string]types.Outcome)
	for rows.Next() {
		var key, state string
		var note sql.NullString
		if err := rows.Scan(&key, &state, &note); err != nil {
			return nil, err
		}
		m[key] = types.Outcome{State: types.OutcomeState(state), NoteKey: note.String}
	}
	return m, rows.Err()
}

// Modify applies fn to the current outcomes and writes back the rows that
// changed, all inside one transaction.
func (t *OutcomeTable) Modify(ctx context.Context, fn func(map[string]types.Outcome) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	before, err := loadOutcomes(ctx, tx)
	if err != nil {
		return err
	}
	after := maps.Clone(before)
	if err := fn(after); err != nil {
		return err
	}

	for key := range before {
		if o, ok := after[key]; !ok || o.State == types.OutcomeUnresolved {
			if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE work_key = ?`, key); err != nil {
				return fmt.Errorf("deleting outcome %s: %w", key, err)
			}
		}
	}
	for key, o := range after {
		if o.State == types.OutcomeUnresolved || before[key] == o {
			continue
		}
		var note sql.NullString
		if o.State == types.OutcomeResolved {
			note = sql.NullString{String: o.NoteKey, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (work_key, state, note_key) VALUES (?, ?, ?)
			 ON CONFLICT(work_key) DO UPDATE SET state=excluded.state, note_key=excluded.note_key`,
			key, string(o.State), note)
		if err != nil {
			return fmt.Errorf("writing outcome %s: %w", key, err)
		}
	}

	return tx.Commit()
}
