package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// importCmd loads plaintext notes from a YAML mapping of path to content.
var importCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Import plaintext notes",
	Long: `Encrypt and store every note in a YAML file of the form

  notes/todo: "Buy milk"
  journal/2024-05-01: |
    Long text...

Entries with empty content delete the note. Use "-" to read stdin.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := readInput(args[0])
		if err != nil {
			fatal("Failed to read import file", err)
		}

		var notes map[string]string
		if err := yaml.Unmarshal(data, &notes); err != nil {
			fatal("Invalid import file", err)
		}

		ctx := context.Background()
		svc := openService(ctx, loadConfig())
		defer svc.Close()

		res, err := svc.Import(ctx, notes)
		fmt.Printf("Imported %d notes, cleared %d, failed %d.\n", res.Saved, res.Cleared, len(res.Failed))
		if err != nil {
			for _, p := range res.Failed {
				fmt.Fprintf(os.Stderr, "  failed: %s\n", p)
			}
			fatal("Import incomplete", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
