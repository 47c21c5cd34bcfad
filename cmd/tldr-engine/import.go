// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importFetch bool

var importCmd = &cobra.Command{
	Use:   "import <metadata-dir>",
	Short: "Import works from a directory of paper metadata YAML files",
	Long: `Import every *.yaml / *.yml file in a directory as a work. Each file holds
an id, title and abstract; the id becomes the work key (the file name is used
when id is empty). Files that cannot be read are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importFetch, "fetch", false, "resolve TL;DRs for the imported works")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	summary, err := a.lib.ImportMetadata(cmd.Context(), args[0], out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nImport: %d imported, %d failed\n", summary.Imported, summary.Failed)

	if importFetch {
		batch, err := a.orchestrator().HandleAdded(cmd.Context(), summary.Works)
		if err != nil {
			return err
		}
		if err := summaryError(batch); err != nil {
			return err
		}
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to import", summary.Failed)
	}
	return nil
}
