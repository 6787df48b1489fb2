// Package lifecycle adapts record change events to the lifecycle runtime.
package lifecycle

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/pathnote/pkg/core"
)

// Source is a lifecycle.Source fed by a record event channel.
type Source struct {
	events <-chan core.Event
	out    chan lifecycle.Event

	// filter, when set, drops events it returns false for.
	filter func(core.Event) bool

	forwarded atomic.Int64
}

// Option configures a Source.
type Option func(*Source)

// WithTypes forwards only events of the given types.
func WithTypes(types ...core.EventType) Option {
	allowed := make(map[core.EventType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(s *Source) {
		s.filter = func(e core.Event) bool { return allowed[e.Type] }
	}
}

// NewSource bridges a typed record event channel to the generic
// lifecycle Event interface. core.Event satisfies lifecycle.Event via String.
func NewSource(events <-chan core.Event, opts ...Option) *Source {
	s := &Source{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the input closes, then closes
// the output channel. The forwarding goroutine runs under lifecycle.Go.
func (s *Source) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.filter != nil && !s.filter(e) {
					continue
				}
				select {
				case s.out <- e:
					s.forwarded.Add(1)
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

// Forwarded reports how many events have been delivered.
func (s *Source) Forwarded() int64 {
	return s.forwarded.Load()
}

var _ lifecycle.Source = (*Source)(nil)
