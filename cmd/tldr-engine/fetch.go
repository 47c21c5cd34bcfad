// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tldr-engine/internal/library"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

var fetchForce bool

var fetchCmd = &cobra.Command{
	Use:   "fetch [work-key...]",
	Short: "Resolve TL;DR summaries for library works",
	Long: `Resolve TL;DR summaries for the given works, or for every work in the
library when no keys are given. Works that already have an outcome are skipped
unless --force is set. Works are processed one at a time with a pause between
requests; interrupting stops the batch before the next work starts.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-resolve works that already have an outcome")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	works, err := selectWorks(cmd, a.lib, args)
	if err != nil {
		return err
	}
	if len(works) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No works to fetch.")
		return nil
	}

	summary, err := a.orchestrator().Update(ctx, works, fetchForce)
	if err != nil {
		return err
	}
	if summary.Total() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Every work already has an outcome; use --force to fetch again.")
		return nil
	}
	return summaryError(summary)
}

// selectWorks returns the named works in argument order, or the whole
// library when no keys are given.
func selectWorks(cmd *cobra.Command, lib *library.Library, keys []string) ([]types.Work, error) {
	ctx := cmd.Context()
	if len(keys) == 0 {
		return lib.Works(ctx)
	}
	works := make([]types.Work, 0, len(keys))
	for _, k := range keys {
		w, err := lib.Work(ctx, k)
		if errors.Is(err, library.ErrWorkNotFound) {
			return nil, fmt.Errorf("work %q is not in the library", k)
		}
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, nil
}
