package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathnote/pkg/core"
)

var (
	writeContent string
	writeFile    string
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write [path]",
	Short: "Write a note",
	Long: `Create or replace the note at path. Content comes from --content, or from
--file ("-" reads stdin). Writing empty content deletes the note.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content := writeContent
		if writeFile != "" {
			data, err := readInput(writeFile)
			if err != nil {
				fatal("Failed to read content", err)
			}
			content = string(data)
		}

		ctx := context.Background()
		svc := openService(ctx, loadConfig())
		defer svc.Close()

		note, err := svc.Save(ctx, args[0], content)
		if err != nil {
			exitOnInvalid(err)
			fatal("Failed to save note", err)
		}

		if content == "" {
			fmt.Printf("Note '%s' cleared.\n", note.Path)
			return
		}
		fmt.Printf("Note '%s' saved at %s.\n", note.Path, note.LastModified.Format(core.TimestampLayout))
	},
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringVar(&writeContent, "content", "", "Note content")
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "Read content from a file (- for stdin)")
	writeCmd.MarkFlagsMutuallyExclusive("content", "file")
}
