// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// OutcomeState is the persisted resolution state of a work.
type OutcomeState string

const (
	OutcomeUnresolved OutcomeState = "unresolved"
	OutcomeResolved   OutcomeState = "resolved"
	OutcomeNotFound   OutcomeState = "not_found"
)

// Outcome is the durable result of resolving a work. NoteKey is set only
// for OutcomeResolved.
type Outcome struct {
	State   OutcomeState `json:"state"`
	NoteKey string       `json:"note_key,omitempty"`
}

// Resolved returns a resolved outcome pointing at noteKey.
func Resolved(noteKey string) Outcome {
	return Outcome{State: OutcomeResolved, NoteKey: noteKey}
}

// NotFound returns the outcome recorded after an exhausted attempt.
func NotFound() Outcome {
	return Outcome{State: OutcomeNotFound}
}

// IsResolved reports whether o references a note.
func (o Outcome) IsResolved() bool {
	return o.State == OutcomeResolved && o.NoteKey != ""
}

// String renders the outcome for tables and logs.
func (o Outcome) String() string {
	switch o.State {
	case OutcomeResolved:
		return "resolved(" + o.NoteKey + ")"
	case OutcomeNotFound:
		return "not found"
	default:
		return "unresolved"
	}
}

// MarshalYAML encodes a resolved outcome as its note key and a not-found
// outcome as false.
func (o Outcome) MarshalYAML() (interface{}, error) {
	switch o.State {
	case OutcomeResolved:
		return o.NoteKey, nil
	case OutcomeNotFound:
		return false, nil
	default:
		return nil, fmt.Errorf("unresolved outcome cannot be persisted")
	}
}

// UnmarshalYAML accepts a note key string or false.
func (o *Outcome) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: outcome must be a note key or false", value.Line)
	}
	switch value.Tag {
	case "!!bool":
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		if b {
			return fmt.Errorf("line %d: outcome true is not valid", value.Line)
		}
		*o = NotFound()
	case "!!null":
		return fmt.Errorf("line %d: outcome must not be null", value.Line)
	default:
		// Note keys that look numeric arrive as !!int or !!float.
		if value.Value == "" {
			return fmt.Errorf("line %d: empty note key", value.Line)
		}
		*o = Resolved(value.Value)
	}
	return nil
}
