package pathnote

import (
	"context"
	"log/slog"

	"github.com/aretw0/pathnote/internal/platform"
	"github.com/aretw0/pathnote/pkg/codec"
	"github.com/aretw0/pathnote/pkg/core"
	"github.com/aretw0/pathnote/pkg/keys"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Types ---

// Note is a public alias for the core note.
type Note = core.Note

// Service is a public alias for the note service.
type Service = core.Service

// RecordStore is a public alias for the storage port.
type RecordStore = core.RecordStore

// --- Adapters ---

const (
	AdapterMemory = platform.AdapterMemory
	AdapterFS     = platform.AdapterFS
	AdapterBolt   = platform.AdapterBolt
	AdapterBadger = platform.AdapterBadger
	AdapterMongo  = platform.AdapterMongo
)

// InMemoryURI selects badger's in-memory mode.
const InMemoryURI = platform.InMemoryURI

// --- Configuration ---

// Option defines a functional option for configuring pathnote.
type Option = platform.Option

// WithLogger sets the logger for the service and the store.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom record store.
func WithStore(store core.RecordStore) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSecret sets the shared secret and the IV seed.
func WithSecret(secret, ivSeed string) Option {
	return platform.WithSecret(secret, ivSeed)
}

// WithEncryptionMethod selects the cipher, e.g. "aes-256-cbc".
func WithEncryptionMethod(method string) Option {
	return platform.WithEncryptionMethod(method)
}

// WithKeyScheme selects the key derivation scheme.
func WithKeyScheme(scheme string) Option {
	return platform.WithKeyScheme(scheme)
}

// WithCipherEncoding selects the ciphertext text form.
func WithCipherEncoding(encoding string) Option {
	return platform.WithCipherEncoding(encoding)
}

// WithReservedPaths rejects note paths matching any doublestar pattern.
func WithReservedPaths(patterns ...string) Option {
	return platform.WithReservedPaths(patterns...)
}

// WithNamespace sets the mongo database and collection.
func WithNamespace(database, collection string) Option {
	return platform.WithNamespace(database, collection)
}

// WithForceTemp forces file-backed stores into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the fs store directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithWatcherErrorHandler receives errors from the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithSyncWrites makes the badger adapter fsync every commit.
func WithSyncWrites(enabled bool) Option {
	return platform.WithSyncWrites(enabled)
}

// WithDevSafety controls the go run / go test sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New creates a note service backed by the store at uri.
func New(ctx context.Context, uri string, opts ...Option) (*core.Service, error) {
	return platform.New(ctx, uri, opts...)
}

// Init builds and initialises a record store without the service.
func Init(ctx context.Context, uri string, opts ...Option) (core.RecordStore, error) {
	return platform.Init(ctx, uri, opts...)
}

// Crypto builds the key material and codec alone.
func Crypto(opts ...Option) (*keys.Deriver, *codec.Codec, error) {
	return platform.Crypto(opts...)
}

// --- Safety & Utils ---

// ResolveStorePath determines the actual location of a file-backed store.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindConfig looks upwards from startDir for a pathnote configuration file.
func FindConfig(startDir string) (string, error) {
	return platform.FindConfig(startDir)
}
