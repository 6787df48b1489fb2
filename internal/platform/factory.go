package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/pathnote/pkg/codec"
	"github.com/aretw0/pathnote/pkg/core"
	"github.com/aretw0/pathnote/pkg/keys"
)

// New builds the full service: record store, key material, codec.
//
//	svc, err := pathnote.New("./data", pathnote.WithSecret(key, iv))
//
// The uri argument is adapter-specific (see Init). Crypto configuration is
// validated before the store is touched, so a bad secret never opens a database.
func New(ctx context.Context, uri string, opts ...Option) (*core.Service, error) {
	o := parseOptions(opts)

	deriver, c, err := crypto(o)
	if err != nil {
		return nil, err
	}

	store, err := initStore(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	svc, err := core.NewService(store, deriver, c,
		core.WithLogger(o.logger),
		core.WithReservedPaths(o.reserved...),
	)
	if err != nil {
		if closer, ok := store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	return svc, nil
}

// Crypto builds only the key material and codec, without a store. The CLI
// uses it for commands that never read or write records.
func Crypto(opts ...Option) (*keys.Deriver, *codec.Codec, error) {
	return crypto(parseOptions(opts))
}

func crypto(o *options) (*keys.Deriver, *codec.Codec, error) {
	method, err := codec.ParseMethod(o.method)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption method: %w", err)
	}
	encoding, err := codec.ParseEncoding(o.encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("cipher encoding: %w", err)
	}
	scheme, err := keys.ParseScheme(o.scheme)
	if err != nil {
		return nil, nil, fmt.Errorf("key scheme: %w", err)
	}

	deriver, err := keys.NewDeriver(keys.Params{
		Secret: o.secret,
		IVSeed: o.ivSeed,
		KeyLen: method.KeySize(),
		Scheme: scheme,
	})
	if err != nil {
		return nil, nil, err
	}

	c, err := codec.New(method, encoding)
	if err != nil {
		return nil, nil, err
	}
	return deriver, c, nil
}
