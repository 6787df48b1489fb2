// Package config loads pathnote settings from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
//
// Development defaults exist for every setting, but the secret key, IV seed,
// encryption method and store location are only defaulted outside
// production. A production deployment missing a crypto setting fails to
// start; a missing store setting fails each request instead.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/pathnote/internal/platform"
	"github.com/aretw0/pathnote/pkg/codec"
	"github.com/aretw0/pathnote/pkg/keys"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Development defaults.
const (
	DefaultSecretKey  = "default_secret_key"
	DefaultSecretIV   = "default_secret_iv"
	DefaultMethod     = string(codec.AES256CBC)
	DefaultDatabase   = "default_database"
	DefaultCollection = "default_collection"
	DefaultMongoURI   = "mongodb://localhost:27017"
	DefaultListen     = ":8080"
	DefaultLogLevel   = "info"
)

// DefaultReservedPaths keep note paths from shadowing the HTTP routes.
var DefaultReservedPaths = []string{"api", "api/**"}

// defaultStoreURI is the development location per adapter.
var defaultStoreURI = map[string]string{
	platform.AdapterFS:     "./data",
	platform.AdapterBolt:   "./data/pathnote.db",
	platform.AdapterBadger: "./data/badger",
	platform.AdapterMongo:  DefaultMongoURI,
	platform.AdapterMemory: "",
}

// DefaultStoreURI returns the development location for adapter.
func DefaultStoreURI(adapter string) string {
	return defaultStoreURI[adapter]
}

// Config holds every pathnote setting.
type Config struct {
	Env              string      `yaml:"env" json:"env"`
	SecretKey        string      `yaml:"secret_key" json:"secret_key"`
	SecretIV         string      `yaml:"secret_iv" json:"secret_iv"`
	EncryptionMethod string      `yaml:"encryption_method" json:"encryption_method"`
	KeyScheme        string      `yaml:"key_scheme" json:"key_scheme"`
	CipherEncoding   string      `yaml:"cipher_encoding" json:"cipher_encoding"`
	Store            StoreConfig `yaml:"store" json:"store"`
	Listen           string      `yaml:"listen" json:"listen"`
	LogLevel         string      `yaml:"log_level" json:"log_level"`
	ReservedPaths    []string    `yaml:"reserved_paths" json:"reserved_paths"`
}

// StoreConfig selects and locates the record store.
type StoreConfig struct {
	Adapter    string `yaml:"adapter" json:"adapter"`
	URI        string `yaml:"uri" json:"uri"`
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection" json:"collection"`
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Default returns the development configuration.
func Default() Config {
	cfg := Config{Env: EnvDevelopment}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty), overlays the
// environment from lookup (os.LookupEnv when nil), validates the result and
// fills in defaults.
func Load(path string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var cfg Config
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg, lookup)
	cfg.Env = normalizeEnv(cfg.Env)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty file has no settings.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidFile, path, err)
	}
	return nil
}

// envVars lists, per setting, the variables consulted in priority order.
// Unprefixed names are the ones earlier deployments used.
var envVars = []struct {
	names []string
	set   func(*Config, string)
}{
	{[]string{"PATHNOTE_ENV", "NODE_ENV"}, func(c *Config, v string) { c.Env = v }},
	{[]string{"PATHNOTE_SECRET_KEY", "SECRET_KEY"}, func(c *Config, v string) { c.SecretKey = v }},
	{[]string{"PATHNOTE_SECRET_IV", "SECRET_IV"}, func(c *Config, v string) { c.SecretIV = v }},
	{[]string{"PATHNOTE_ENCRYPTION_METHOD", "ENCRYPTION_METHOD", "ECNRYPTION_METHOD"}, func(c *Config, v string) { c.EncryptionMethod = v }},
	{[]string{"PATHNOTE_KEY_SCHEME"}, func(c *Config, v string) { c.KeyScheme = v }},
	{[]string{"PATHNOTE_CIPHER_ENCODING"}, func(c *Config, v string) { c.CipherEncoding = v }},
	{[]string{"PATHNOTE_STORE"}, func(c *Config, v string) { c.Store.Adapter = v }},
	{[]string{"PATHNOTE_STORE_URI"}, func(c *Config, v string) { c.Store.URI = v }},
	{[]string{"PATHNOTE_DATABASE", "DATABASE_NAME"}, func(c *Config, v string) { c.Store.Database = v }},
	{[]string{"PATHNOTE_COLLECTION", "TEXT_COLLECTION"}, func(c *Config, v string) { c.Store.Collection = v }},
	{[]string{"PATHNOTE_LISTEN"}, func(c *Config, v string) { c.Listen = v }},
	{[]string{"PATHNOTE_LOG_LEVEL"}, func(c *Config, v string) { c.LogLevel = v }},
}

func applyEnv(cfg *Config, lookup LookupFunc) {
	for _, ev := range envVars {
		for _, name := range ev.names {
			if v, ok := lookup(name); ok && v != "" {
				ev.set(cfg, v)
				break
			}
		}
	}

	// MONGO_URI only makes sense for the mongo adapter.
	if _, ok := lookup("PATHNOTE_STORE_URI"); !ok && cfg.Store.Adapter == platform.AdapterMongo {
		if v, ok := lookup("MONGO_URI"); ok && v != "" {
			cfg.Store.URI = v
		}
	}

	if v, ok := lookup("PATHNOTE_RESERVED"); ok {
		cfg.ReservedPaths = splitList(v)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", EnvDevelopment:
		return EnvDevelopment
	case "prod", EnvProduction:
		return EnvProduction
	case EnvTest:
		return EnvTest
	}
	return env
}

// Production reports whether cfg describes a production deployment.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// applyDefaults fills empty settings. Crypto and store location settings are
// left alone in production.
func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.Store.Adapter == "" {
		c.Store.Adapter = platform.AdapterFS
	}
	if c.KeyScheme == "" {
		c.KeyScheme = string(keys.SchemeSHA512Hex)
	}
	if c.CipherEncoding == "" {
		c.CipherEncoding = string(codec.EncodingBase64Hex)
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ReservedPaths == nil {
		c.ReservedPaths = append([]string(nil), DefaultReservedPaths...)
	}

	if c.Production() {
		return
	}
	if c.SecretKey == "" {
		c.SecretKey = DefaultSecretKey
	}
	if c.SecretIV == "" {
		c.SecretIV = DefaultSecretIV
	}
	if c.EncryptionMethod == "" {
		c.EncryptionMethod = DefaultMethod
	}
	if c.Store.URI == "" {
		c.Store.URI = DefaultStoreURI(c.Store.Adapter)
	}
	if c.Store.Database == "" {
		c.Store.Database = DefaultDatabase
	}
	if c.Store.Collection == "" {
		c.Store.Collection = DefaultCollection
	}
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Options translates the configuration into platform options.
func (c Config) Options(logger *slog.Logger) []platform.Option {
	return []platform.Option{
		platform.WithLogger(logger),
		platform.WithAdapter(c.Store.Adapter),
		platform.WithNamespace(c.Store.Database, c.Store.Collection),
		platform.WithSecret(c.SecretKey, c.SecretIV),
		platform.WithEncryptionMethod(c.EncryptionMethod),
		platform.WithKeyScheme(c.KeyScheme),
		platform.WithCipherEncoding(c.CipherEncoding),
		platform.WithReservedPaths(c.ReservedPaths...),
	}
}

// Redacted returns a copy safe to print: key material and store passwords
// are masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.SecretKey = mask(c.SecretKey)
	c.SecretIV = mask(c.SecretIV)
	if u, err := url.Parse(c.Store.URI); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			c.Store.URI = u.String()
		}
	}
	c.ReservedPaths = append([]string(nil), c.ReservedPaths...)
	return c
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validAdapters = map[string]bool{
	platform.AdapterFS:     true,
	platform.AdapterBolt:   true,
	platform.AdapterBadger: true,
	platform.AdapterMongo:  true,
	platform.AdapterMemory: true,
}

// Validate checks cfg and returns the first violation, or nil. Empty values
// are accepted where a default will be applied.
func Validate(cfg Config) error {
	switch cfg.Env {
	case "", EnvDevelopment, EnvTest, EnvProduction:
	default:
		return ErrInvalidEnv
	}

	if cfg.Env == EnvProduction {
		if cfg.SecretKey == "" || cfg.SecretIV == "" || cfg.EncryptionMethod == "" {
			return ErrMissingCrypto
		}
		if cfg.SecretKey == DefaultSecretKey || cfg.SecretIV == DefaultSecretIV {
			return ErrInsecureCrypto
		}
	}

	if cfg.EncryptionMethod != "" {
		if _, err := codec.ParseMethod(cfg.EncryptionMethod); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCrypto, err)
		}
	}
	if _, err := keys.ParseScheme(cfg.KeyScheme); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCrypto, err)
	}
	if _, err := codec.ParseEncoding(cfg.CipherEncoding); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCrypto, err)
	}

	adapter := cfg.Store.Adapter
	if adapter == "" {
		adapter = platform.AdapterFS
	}
	if !validAdapters[adapter] {
		return ErrInvalidAdapter
	}
	if cfg.Env == EnvProduction && cfg.Store.URI == "" && isFileBacked(adapter) {
		return ErrMissingStorePath
	}

	if cfg.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
		}
	}

	if cfg.LogLevel != "" && !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

func isFileBacked(adapter string) bool {
	return adapter == platform.AdapterFS || adapter == platform.AdapterBolt || adapter == platform.AdapterBadger
}
