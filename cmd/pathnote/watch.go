package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	pnlifecycle "github.com/aretw0/pathnote/pkg/adapters/lifecycle"
	"github.com/aretw0/pathnote/pkg/core"
)

var (
	watchTypes []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream record changes",
	Long: `Print one line per record change until interrupted. Only lookup keys are
known to the store; use "pathnote keyhash" to map a path to its key.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var opts []pnlifecycle.Option
		if len(watchTypes) > 0 {
			types, err := parseEventTypes(watchTypes)
			if err != nil {
				fatal("Invalid --type", err)
			}
			opts = append(opts, pnlifecycle.WithTypes(types...))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := openService(ctx, loadConfig())
		defer svc.Close()

		events, err := svc.Watch(ctx)
		if errors.Is(err, core.ErrNotSupported) {
			fatal("Store cannot be watched", err)
		}
		if err != nil {
			fatal("Failed to start watcher", err)
		}

		source := pnlifecycle.NewSource(events, opts...)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to start event source", err)
		}

		for e := range source.Events() {
			fmt.Println(e)
		}
		slog.Debug("watch stopped", "events", source.Forwarded())
	},
}

func parseEventTypes(names []string) ([]core.EventType, error) {
	types := make([]core.EventType, 0, len(names))
	for _, n := range names {
		t := core.EventType(strings.ToUpper(strings.TrimSpace(n)))
		switch t {
		case core.EventCreate, core.EventModify, core.EventDelete:
			types = append(types, t)
		default:
			return nil, fmt.Errorf("unknown event type %q", n)
		}
	}
	return types, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVarP(&watchTypes, "type", "t", nil, "Only show these event types (create, modify, delete)")
}
