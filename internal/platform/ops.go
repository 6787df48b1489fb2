package platform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/pathnote/pkg/adapters/badger"
	"github.com/aretw0/pathnote/pkg/adapters/bolt"
	"github.com/aretw0/pathnote/pkg/adapters/fs"
	"github.com/aretw0/pathnote/pkg/adapters/memory"
	"github.com/aretw0/pathnote/pkg/adapters/mongo"
	"github.com/aretw0/pathnote/pkg/core"
)

// InMemoryURI selects badger's in-memory mode.
const InMemoryURI = ":memory:"

// Init builds and initialises the record store described by opts.
// The uri argument is adapter-specific: a directory for fs and badger, a
// database file for bolt, a connection string for mongo; memory ignores it.
func Init(ctx context.Context, uri string, opts ...Option) (core.RecordStore, error) {
	return initStore(ctx, uri, parseOptions(opts))
}

func initStore(ctx context.Context, uri string, o *options) (core.RecordStore, error) {
	// 1. Check for injected store
	if o.store != nil {
		return o.store, nil
	}

	// 2. Build based on adapter
	var (
		store core.RecordStore
		err   error
	)
	switch o.adapter {
	case AdapterMemory:
		store = memory.New()
	case AdapterFS:
		store = initFS(uri, o)
	case AdapterBolt:
		store, err = bolt.Open(resolvePath(uri, o))
	case AdapterBadger:
		store, err = initBadger(uri, o)
	case AdapterMongo:
		store = initMongo(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	// 3. Run initialization
	if err := store.Initialize(ctx); err != nil {
		if c, ok := store.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		return nil, err
	}

	return store, nil
}

// resolvePath applies dev safety to a file-backed store location.
func resolvePath(path string, o *options) string {
	tempDir, _ := o.config["temp_dir"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	useTemp := tempDir || (IsDevRun() && devSafety)
	resolved := ResolveStorePath(path, useTemp)

	if useTemp && resolved != filepath.Clean(path) {
		logger(o).Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	} else if IsDevRun() && !devSafety {
		logger(o).Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
	}
	return resolved
}

func initFS(path string, o *options) *fs.Store {
	mustExist, _ := o.config["must_exist"].(bool)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	return fs.NewStore(fs.Config{
		Path:         resolvePath(path, o),
		MustExist:    mustExist,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}

func initBadger(path string, o *options) (*badger.Store, error) {
	syncWrites, _ := o.config["sync_writes"].(bool)
	if path == InMemoryURI {
		return badger.Open(badger.Config{InMemory: true})
	}
	return badger.Open(badger.Config{
		Path:       resolvePath(path, o),
		SyncWrites: syncWrites,
	})
}

func initMongo(uri string, o *options) *mongo.Store {
	database, _ := o.config["database"].(string)
	collection, _ := o.config["collection"].(string)

	return mongo.New(mongo.Config{
		URI:        uri,
		Database:   database,
		Collection: collection,
		Logger:     o.logger,
	})
}

func logger(o *options) *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}
