package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathnote"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pathnote",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pathnote version %s\n", strings.TrimSpace(pathnote.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
