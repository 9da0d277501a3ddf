package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/automata/internal/cli"
)

var errInvalid = errors.New("validation reported issues")

var validateCmd = &cobra.Command{
	Use:   "validate <machine|file>",
	Short: "Check a machine for structural issues",
	Long: `Reports unreachable states, missing transitions and ambiguous transitions.
The checks are syntactic: patterns and overlapping matchers are not evaluated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")

		opts := cli.ValidateOptions{
			Target: args[0],
			JSON:   jsonMode,
			Watch:  watchMode,
			Output: os.Stdout,
		}

		if watchMode {
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			return cli.WatchValidate(sigCtx, opts, logger)
		}

		ok, err := cli.Validate(loadCatalog(), opts)
		if err != nil {
			return err
		}
		if !ok {
			return errInvalid
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("json", false, "Print diagnostics as JSON")
	validateCmd.Flags().BoolP("watch", "w", false, "Re-validate the definition file on every change")
}
