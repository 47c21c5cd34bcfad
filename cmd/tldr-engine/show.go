// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tldr-engine/internal/library"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <work-key>",
	Short: "Show a work, its outcome and its TL;DR note",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	w, err := a.lib.Work(ctx, args[0])
	if errors.Is(err, library.ErrWorkNotFound) {
		return fmt.Errorf("work %q is not in the library", args[0])
	}
	if err != nil {
		return err
	}
	o, err := a.outcomes.Get(ctx, w.Key)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Key:      %s\n", w.Key)
	fmt.Fprintf(out, "Title:    %s\n", w.Title)
	if w.Abstract != "" {
		fmt.Fprintf(out, "Abstract: %s\n", truncate(w.Abstract, 200))
	}
	fmt.Fprintf(out, "Outcome:  %s\n", o)

	if o.State != types.OutcomeResolved {
		return nil
	}
	note, err := a.lib.Note(ctx, o.NoteKey)
	if errors.Is(err, library.ErrNoteNotFound) {
		fmt.Fprintf(out, "Note %s is missing; run fetch --force %s to recreate it\n", o.NoteKey, w.Key)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n", note.Body)
	return nil
}
