// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the tldr-engine:
// library works and notes, service candidates, resolution outcomes, batch
// summaries and configuration.
package types

// Phase names the protocol stage that is running or that accepted a
// candidate.
type Phase string

const (
	PhaseMatch  Phase = "match"
	PhaseSearch Phase = "search"
)

// FetchStatus is the terminal state of one resolution attempt.
type FetchStatus string

const (
	StatusFound    FetchStatus = "found"
	StatusNotFound FetchStatus = "not_found"
	StatusError    FetchStatus = "error"
)

// FetchResult is returned by a single resolution attempt.
type FetchResult struct {
	Status FetchStatus `json:"status"`

	// Phase is set only when Status is StatusFound.
	Phase Phase `json:"phase,omitempty"`

	// NoteKey is the note that holds the summary (StatusFound only).
	NoteKey string `json:"note_key,omitempty"`

	// Err is the failure behind StatusError.
	Err error `json:"-"`
}

// BatchSummary counts per-item results of a batch run. Succeeded + Failed
// equals the number of works processed; Errored is the subset of Failed
// that ended in StatusError.
type BatchSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Errored   int `json:"errored"`
}

// Total returns the number of works processed.
func (s BatchSummary) Total() int {
	return s.Succeeded + s.Failed
}
