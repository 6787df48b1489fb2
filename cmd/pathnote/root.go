package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathnote"
	"github.com/aretw0/pathnote/internal/config"
	"github.com/aretw0/pathnote/pkg/core"
	"github.com/aretw0/pathnote/pkg/keys"
)

var (
	verbose    bool
	configPath string
	storeFlag  string
	uriFlag    string

	logLevel = new(slog.LevelVar)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pathnote",
	Short: "A path-addressed, encrypted note store",
	Long: `pathnote stores free-text notes under logical paths such as "notes/todo".
Content is encrypted with a key derived from a shared secret, and records are
identified by a hash of the path, so the store never sees either in the clear.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logLevel.Set(slog.LevelDebug)
		}

		opts := &slog.HandlerOptions{
			Level: logLevel,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: nearest pathnote.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store adapter: fs, bolt, badger, mongo or memory")
	rootCmd.PersistentFlags().StringVar(&uriFlag, "uri", "", "Store location (directory, database file or connection string)")
}

// loadConfig resolves the configuration file, applies flag overrides and
// validates the result. Invalid configuration is fatal.
func loadConfig() config.Config {
	path := configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			// Absence of a file is fine: defaults and env still apply.
			path, _ = pathnote.FindConfig(wd)
		}
	}

	cfg, err := config.Load(path, os.LookupEnv)
	if err != nil {
		fatal("Invalid configuration", err)
	}

	cfg, err = applyStoreFlags(cfg, storeFlag, uriFlag)
	if err != nil {
		fatal("Invalid configuration", err)
	}

	if !verbose {
		logLevel.Set(cfg.SlogLevel())
	}
	if path != "" {
		slog.Debug("configuration loaded", "file", path, "env", cfg.Env)
	}
	return cfg
}

// applyStoreFlags overrides the store from --store and --uri. A location
// from the file or env survives unless --uri replaces it or --store switches
// to a different adapter.
func applyStoreFlags(cfg config.Config, store, uri string) (config.Config, error) {
	if store == "" && uri == "" {
		return cfg, nil
	}

	switched := store != "" && store != cfg.Store.Adapter
	if store != "" {
		cfg.Store.Adapter = store
	}
	switch {
	case uri != "":
		cfg.Store.URI = uri
	case switched:
		cfg.Store.URI = ""
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	// Re-apply per-adapter defaults for the switched store.
	if cfg.Store.URI == "" && !cfg.Production() {
		cfg.Store.URI = config.DefaultStoreURI(cfg.Store.Adapter)
	}
	return cfg, nil
}

// openService builds the note service described by cfg.
func openService(ctx context.Context, cfg config.Config) *core.Service {
	svc, err := pathnote.New(ctx, cfg.Store.URI, cfg.Options(slog.Default())...)
	if err != nil {
		fatal("Failed to initialize pathnote", err)
	}
	return svc
}

// exitOnInvalid reports invalid-input errors without the stack of wrapping.
func exitOnInvalid(err error) {
	if errors.Is(err, core.ErrInvalidInput) || errors.Is(err, keys.ErrEmptyPath) {
		fmt.Fprintln(os.Stderr, "Error: invalid path")
		os.Exit(2)
	}
}
