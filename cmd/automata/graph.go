package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/automata/internal/compiler"
	"github.com/aretw0/automata/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <machine|file>",
	Short: "Export a machine as a diagram or definition",
	Long:  `Outputs a Mermaid diagram (graph LR) of the transition table, or the machine as a YAML/JSON definition.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		bp, err := loadCatalog().Resolve(args[0])
		if err != nil {
			return err
		}

		switch format {
		case "mermaid":
			fmt.Print(graph.GenerateMermaid(bp, nil))
			return nil
		case compiler.FormatYAML, compiler.FormatJSON:
			data, err := compiler.Encode(bp, format)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		return fmt.Errorf("unknown format %q (want mermaid, yaml or json)", format)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid, yaml or json")
}
