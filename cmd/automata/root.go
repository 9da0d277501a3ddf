package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/automata/internal/cli"
)

var (
	cfg    cli.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "automata",
	Short: "Automata runs deterministic finite-state machines",
	Long: `Automata runs, validates and serves deterministic finite-state machines
defined in Go or in YAML/JSON definition files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := cli.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		flags := cmd.Flags()
		if flags.Changed("dir") {
			cfg.Dir, _ = flags.GetString("dir")
		}
		if flags.Changed("debug") {
			cfg.Debug, _ = flags.GetBool("debug")
		}
		if flags.Changed("store") {
			cfg.Store, _ = flags.GetString("store")
		}
		logger = cli.NewLogger(cfg)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing definition files")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every transition to stderr")
	rootCmd.PersistentFlags().String("store", "file", "Session store: file, memory or redis")
}

// loadCatalog builds the catalog from --dir for one-shot commands.
func loadCatalog() *cli.Catalog {
	cat, err := cli.LoadCatalog(cli.DirSource(cfg.Dir), logger)
	if err != nil {
		logger.Warn("some definitions were skipped", "err", err)
	}
	return cat
}
