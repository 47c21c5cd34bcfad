// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tldr-engine/internal/library"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <work-key...>",
	Short: "Delete works and forget their outcomes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	deleted := make([]string, 0, len(args))
	for _, key := range args {
		err := a.lib.DeleteWork(ctx, key)
		switch {
		case errors.Is(err, library.ErrWorkNotFound):
			fmt.Fprintf(out, "  %s: not in library\n", key)
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "  %s: deleted\n", key)
		}
		// Outcomes can outlive their work under the file backend, so the
		// key is forgotten either way.
		deleted = append(deleted, key)
	}
	return a.orchestrator().HandleDeleted(ctx, deleted)
}
