package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/automata/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <machine|file> [input...]",
	Short: "Run a machine over inputs",
	Long: `Runs a built-in machine, a machine from --dir or a definition file.

Inputs given as arguments are calculated once each. Without arguments every
line of stdin is an input, interactively when stdin is a terminal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")

		opts := cli.RunOptions{
			Machine:   args[0],
			Headless:  headless || !cli.IsTerminal(os.Stdin),
			JSON:      jsonMode,
			Debug:     cfg.Debug,
			SessionID: sessionID,
			MaxInput:  cfg.MaxInput,
			Input:     os.Stdin,
			Output:    os.Stdout,
		}
		if len(args) > 1 {
			opts.Headless = true
			opts.Input = strings.NewReader(strings.Join(args[1:], "\n"))
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		cat := loadCatalog()
		if sessionID == "" {
			return cli.Run(sigCtx, cat, nil, opts, logger)
		}

		backend, err := cli.OpenBackend(sigCtx, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()
		return cli.Run(sigCtx, cat, cli.NewSessionManager(backend, cat, cfg, logger), opts, logger)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, strict IO)")
	runCmd.Flags().Bool("json", false, "Print one JSON result per input (NDJSON)")
	runCmd.Flags().StringP("session", "s", "", "Feed a persistent session instead of resetting per input")
}
