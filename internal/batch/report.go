// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"io"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

const maxTitleLen = 40

// ConsoleReporter prints one line per progress event to w.
func ConsoleReporter(w io.Writer) Reporter {
	return func(e Event) {
		title := truncateTitle(e.Work.Title)
		switch e.Kind {
		case EventStarted:
			fmt.Fprintf(w, "[%d/%d] fetching:  %s\n", e.Index+1, e.Total, title)
		case EventPhase:
			fmt.Fprintf(w, "[%d/%d] %s %s\n", e.Index+1, e.Total, phaseLabel(e.Phase), title)
		case EventDone:
			fmt.Fprintf(w, "[%d/%d] %s %s\n", e.Index+1, e.Total, statusLabel(e.Result.Status), title)
			fmt.Fprintf(w, "        %s\n", formatSummary(e.Total-e.Index-1, e.Summary))
		case EventFinished:
			fmt.Fprintf(w, "\nsucceeded: %d; failed: %d (errors: %d)\n",
				e.Summary.Succeeded, e.Summary.Failed, e.Summary.Errored)
		}
	}
}

func phaseLabel(p types.Phase) string {
	switch p {
	case types.PhaseMatch:
		return "matching: "
	case types.PhaseSearch:
		return "searching:"
	default:
		return string(p) + ":"
	}
}

func statusLabel(s types.FetchStatus) string {
	switch s {
	case types.StatusFound:
		return "found:    "
	case types.StatusError:
		return "error:    "
	default:
		return "not found:"
	}
}

func formatSummary(waiting int, s types.BatchSummary) string {
	return fmt.Sprintf("waiting: %d; succeeded: %d; failed: %d", waiting, s.Succeeded, s.Failed)
}

// truncateTitle shortens title to maxTitleLen runes plus an ellipsis.
func truncateTitle(title string) string {
	if title == "" {
		return "Untitled"
	}
	r := []rune(title)
	if len(r) <= maxTitleLen {
		return title
	}
	return string(r[:maxTitleLen]) + "..."
}
