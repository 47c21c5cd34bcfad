// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

var (
	addKey      string
	addTitle    string
	addAbstract string
	addFetch    bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a work to the library",
	Long: `Add a work (title and optional abstract) to the library. An existing work
with the same key is updated. With --fetch the new work is resolved after a
short delay, the same way newly imported works are.`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addKey, "key", "", "work key (generated when empty)")
	addCmd.Flags().StringVar(&addTitle, "title", "", "work title")
	addCmd.Flags().StringVar(&addAbstract, "abstract", "", "work abstract")
	addCmd.Flags().BoolVar(&addFetch, "fetch", false, "resolve the TL;DR after adding")
	_ = addCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	key := addKey
	if key == "" {
		key = newWorkKey()
	}
	w := types.Work{
		Key:      key,
		Title:    strings.TrimSpace(addTitle),
		Abstract: strings.TrimSpace(addAbstract),
		AddedAt:  time.Now().UTC(),
	}
	if err := a.lib.AddWork(cmd.Context(), w); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", w.Key, truncate(w.Title, 60))

	if !addFetch {
		return nil
	}
	summary, err := a.orchestrator().HandleAdded(cmd.Context(), []types.Work{w})
	if err != nil {
		return err
	}
	return summaryError(summary)
}

// newWorkKey returns an eight character upper-case key.
func newWorkKey() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
