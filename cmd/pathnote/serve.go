package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathnote/internal/httpapi"
)

var (
	listenAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the load/save HTTP API",
	Long: `Serve GET /api/load?path=... and POST /api/save until interrupted.
The listen address comes from --listen, PATHNOTE_LISTEN or the config file.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := openService(ctx, cfg)
		defer svc.Close()

		ln, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			fatal("Failed to listen", err)
		}

		slog.Info("serving notes", "env", cfg.Env, "store", cfg.Store.Adapter)
		if err := httpapi.Serve(ctx, ln, httpapi.New(svc, slog.Default()), slog.Default()); err != nil {
			fatal("Server error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (host:port)")
}
