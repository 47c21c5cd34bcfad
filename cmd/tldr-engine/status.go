// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List library works with their resolution outcome",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(statusCmd)
}

// workStatus is one row of the status report.
type workStatus struct {
	Key     string             `json:"key"`
	Title   string             `json:"title"`
	State   types.OutcomeState `json:"state"`
	NoteKey string             `json:"note_key,omitempty"`
}

// statusReport pairs each work with its outcome and counts the states.
type statusReport struct {
	Works    []workStatus `json:"works"`
	Resolved int          `json:"resolved"`
	NotFound int          `json:"not_found"`
	Waiting  int          `json:"waiting"`
	Source   string       `json:"outcome_source,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	works, err := a.lib.Works(ctx)
	if err != nil {
		return err
	}
	outcomes, err := a.outcomes.All(ctx)
	if err != nil {
		return err
	}

	report := buildStatus(works, outcomes)
	report.Source = a.outcomeSource
	if statusJSON {
		return writeStatusJSON(cmd.OutOrStdout(), report)
	}
	writeStatusTable(cmd.OutOrStdout(), report)
	return nil
}

func buildStatus(works []types.Work, outcomes map[string]types.Outcome) statusReport {
	r := statusReport{Works: make([]workStatus, 0, len(works))}
	for _, w := range works {
		o, ok := outcomes[w.Key]
		if !ok {
			o = types.Outcome{State: types.OutcomeUnresolved}
		}
		switch o.State {
		case types.OutcomeResolved:
			r.Resolved++
		case types.OutcomeNotFound:
			r.NotFound++
		default:
			r.Waiting++
		}
		r.Works = append(r.Works, workStatus{Key: w.Key, Title: w.Title, State: o.State, NoteKey: o.NoteKey})
	}
	return r
}

func writeStatusJSON(w io.Writer, r statusReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeStatusTable(w io.Writer, r statusReport) {
	if len(r.Works) == 0 {
		fmt.Fprintln(w, "Library is empty.")
		return
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Key", "Title", "Outcome", "Note"})
	for _, ws := range r.Works {
		title := ws.Title
		if title == "" {
			title = "Untitled"
		}
		tw.AppendRow(table.Row{ws.Key, truncate(title, 50), string(ws.State), ws.NoteKey})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, AlignHeader: text.AlignLeft},
	})
	fmt.Fprintln(w, tw.Render())
	fmt.Fprintf(w, "resolved: %d; not found: %d; waiting: %d\n", r.Resolved, r.NotFound, r.Waiting)
	if r.Source != "" {
		fmt.Fprintf(w, "outcomes: %s\n", r.Source)
	}
}
