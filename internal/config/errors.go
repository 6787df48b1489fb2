package config

import "errors"

var (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidFile indicates the configuration file could not be parsed.
	ErrInvalidFile = errors.New("config: invalid configuration file")

	// ErrInvalidEnv indicates the environment name is not recognized.
	ErrInvalidEnv = errors.New("config: invalid env (must be \"development\", \"test\", or \"production\")")

	// ErrMissingCrypto indicates a production deployment did not set the
	// secret key, IV seed or encryption method explicitly.
	ErrMissingCrypto = errors.New("config: secret key, secret IV and encryption method must be set in production")

	// ErrInsecureCrypto indicates a production deployment uses the
	// well-known development secret or IV seed.
	ErrInsecureCrypto = errors.New("config: development secret key or IV must not be used in production")

	// ErrInvalidCrypto indicates the encryption method, key scheme or cipher
	// encoding is not supported.
	ErrInvalidCrypto = errors.New("config: invalid crypto settings")

	// ErrInvalidAdapter indicates the store adapter is not recognized.
	ErrInvalidAdapter = errors.New("config: invalid store adapter (must be \"fs\", \"bolt\", \"badger\", \"mongo\", or \"memory\")")

	// ErrMissingStorePath indicates a file-backed store has no location in production.
	ErrMissingStorePath = errors.New("config: store uri must be set for file-backed adapters in production")

	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")
)
