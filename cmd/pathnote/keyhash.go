package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathnote"
)

var keyhashCmd = &cobra.Command{
	Use:   "keyhash [path]",
	Short: "Print the lookup key a path is stored under",
	Long: `Print the storage identity of a note path without touching the store.
Useful to locate a record by hand, e.g. {root}/{key[:2]}/{key}.json for the fs adapter.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		deriver, _, err := pathnote.Crypto(cfg.Options(slog.Default())...)
		if err != nil {
			fatal("Invalid crypto configuration", err)
		}

		key, err := deriver.LookupKey(args[0])
		if err != nil {
			exitOnInvalid(err)
			fatal("Invalid path", err)
		}
		fmt.Println(key)
	},
}

func init() {
	rootCmd.AddCommand(keyhashCmd)
}
