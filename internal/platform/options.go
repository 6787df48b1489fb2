package platform

import (
	"log/slog"

	"github.com/aretw0/pathnote/pkg/codec"
	"github.com/aretw0/pathnote/pkg/core"
	"github.com/aretw0/pathnote/pkg/keys"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterMemory = "memory"
	AdapterFS     = "fs"
	AdapterBolt   = "bolt"
	AdapterBadger = "badger"
	AdapterMongo  = "mongo"
)

// options holds the internal configuration for the pathnote service.
type options struct {
	store   core.RecordStore
	logger  *slog.Logger
	adapter string
	config  map[string]any

	secret   string
	ivSeed   string
	method   string
	scheme   string
	encoding string
	reserved []string
}

// Option defines a functional option for configuring pathnote.
type Option func(*options)

// defaultOptions returns the default configuration. Secret and IV seed have no
// default here; the config layer decides whether development defaults apply.
func defaultOptions() *options {
	return &options{
		adapter: AdapterFS,
		config:  make(map[string]any),
		method:  string(codec.AES256CBC),
		scheme:  string(keys.SchemeSHA512Hex),
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the service and the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom record store (e.g. a mock).
// If provided, adapter selection is skipped.
func WithStore(store core.RecordStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSecret sets the shared secret and the IV seed.
func WithSecret(secret, ivSeed string) Option {
	return func(o *options) {
		o.secret = secret
		o.ivSeed = ivSeed
	}
}

// WithEncryptionMethod selects the cipher, e.g. "aes-256-cbc".
func WithEncryptionMethod(method string) Option {
	return func(o *options) {
		o.method = method
	}
}

// WithKeyScheme selects the key derivation scheme. Defaults to "sha512-hex".
func WithKeyScheme(scheme string) Option {
	return func(o *options) {
		o.scheme = scheme
	}
}

// WithCipherEncoding selects the ciphertext text form. Defaults to "base64-hex".
func WithCipherEncoding(encoding string) Option {
	return func(o *options) {
		o.encoding = encoding
	}
}

// WithReservedPaths rejects note paths matching any doublestar pattern.
func WithReservedPaths(patterns ...string) Option {
	return func(o *options) {
		o.reserved = append(o.reserved, patterns...)
	}
}

// WithNamespace sets the database and collection for the mongo adapter.
func WithNamespace(database, collection string) Option {
	return func(o *options) {
		o.config["database"] = database
		o.config["collection"] = collection
	}
}

// WithForceTemp forces file-backed stores into a temporary directory
// (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist requires the fs store directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithWatcherErrorHandler registers a callback for errors raised while
// watching the fs store. Without it they are only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithSyncWrites makes the badger adapter fsync every commit.
func WithSyncWrites(enabled bool) Option {
	return func(o *options) {
		o.config["sync_writes"] = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true) file-backed stores are redirected to a
// temporary directory so development runs cannot touch real data.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}
