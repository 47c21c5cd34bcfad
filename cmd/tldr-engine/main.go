// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tldr-engine CLI, which attaches
// Semantic Scholar TL;DR summaries to the works in a local library.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tldr-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the tldr-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "tldr-engine",
	Short: "Attach Semantic Scholar TL;DR summaries to library works",
	Long: `tldr-engine keeps a local library of works (title, abstract) and looks up a
short machine-generated summary for each one on Semantic Scholar. A best title
match is tried first, then a ranked search; a candidate is accepted only when
its title or abstract closely matches the local work.

Each work is resolved at most once. Found summaries are saved as a single note
per work; works without a summary are remembered and skipped on later runs
unless --force is given. Network failures are not remembered, so those works
are retried next time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./tldr-engine.yaml or ~/.config/tldr-engine/config.yaml)")
	flags.String("db", "", "library database path")
	flags.String("outcomes-backend", "", "where outcomes are kept: sqlite or file")
	flags.String("outcomes-file", "", "YAML outcome file used by the file backend")
	flags.String("log-level", "", "diagnostic log level: debug, info, warn, error")
	flags.String("log-format", "", "diagnostic log format: text or json")

	bindFlag("library.db_path", "db")
	bindFlag("outcomes.backend", "outcomes-backend")
	bindFlag("outcomes.path", "outcomes-file")
	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tldr-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tldr-engine"))
		}
	}

	bindEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
