package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathnote/pkg/core"
)

var (
	readJSON bool
)

// noteJSON is the --json form of a note.
type noteJSON struct {
	Path         string `json:"path"`
	Content      string `json:"content"`
	LastModified string `json:"lastModified"`
	Unreadable   bool   `json:"unreadable,omitempty"`
}

var readCmd = &cobra.Command{
	Use:   "read [path]",
	Short: "Read a note",
	Long:  `Read a note by its path. Outputs the plain content by default, or a JSON object with --json.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc := openService(ctx, loadConfig())
		defer svc.Close()

		note, err := svc.Load(ctx, args[0])
		if err != nil {
			exitOnInvalid(err)
			fatal("Error reading note", err)
		}

		if readJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(noteJSON{
				Path:         note.Path,
				Content:      note.Content,
				LastModified: note.LastModified.Format(core.TimestampLayout),
				Unreadable:   note.Unreadable,
			}); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		if note.Unreadable {
			fmt.Fprintln(os.Stderr, "Warning: note exists but could not be decrypted")
		}
		// Default: Print Content
		fmt.Print(note.Content)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output in JSON format")
}
