// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Work is a bibliographic entry held by the library. Key is stable and
// unique within a library; Title and Abstract may change between runs.
type Work struct {
	// Key identifies the work (e.g. "2301.07041" or an 8-char library key).
	Key string `json:"key" yaml:"key"`

	// Title is the work title. An empty title makes the work unresolvable.
	Title string `json:"title" yaml:"title"`

	// Abstract is the work abstract, if recorded.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// AddedAt is when the work entered the library.
	AddedAt time.Time `json:"added_at" yaml:"added_at"`
}

// Note is a child annotation attached to a work. The engine writes at most
// one TL;DR note per work.
type Note struct {
	Key       string    `json:"key" yaml:"key"`
	WorkKey   string    `json:"work_key" yaml:"work_key"`
	Body      string    `json:"body" yaml:"body"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Candidate is a paper returned by the metadata service. Empty strings mean
// the service did not supply the field.
type Candidate struct {
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	TLDR     string `json:"tldr,omitempty" yaml:"tldr,omitempty"`
}

// HasTLDR reports whether the candidate carries a summary.
func (c Candidate) HasTLDR() bool { return c.TLDR != "" }
