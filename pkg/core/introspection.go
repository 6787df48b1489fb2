package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability. It never includes
// key material.
type ServiceState struct {
	StoreType      string   `json:"store_type"`
	KeyScheme      string   `json:"key_scheme"`
	CipherMethod   string   `json:"cipher_method"`
	CipherEncoding string   `json:"cipher_encoding"`
	ReservedPaths  []string `json:"reserved_paths,omitempty"`
	Watchable      bool     `json:"watchable"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	storeType := "store"
	// Try to get component type if the store implements introspection.Component
	if comp, ok := s.store.(introspection.Component); ok {
		storeType = comp.ComponentType()
	}
	_, watchable := s.store.(Watchable)

	return ServiceState{
		StoreType:      storeType,
		KeyScheme:      string(s.keys.Scheme()),
		CipherMethod:   string(s.codec.Method()),
		CipherEncoding: string(s.codec.Encoding()),
		ReservedPaths:  append([]string(nil), s.reserved...),
		Watchable:      watchable,
	}
}

// StoreState returns the store's own introspection state, if it exposes one.
func (s *Service) StoreState() any {
	if in, ok := s.store.(introspection.Introspectable); ok {
		return in.State()
	}
	return nil
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
