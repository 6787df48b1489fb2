package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change observed in a record store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a single record. Only the lookup key is known;
// the logical path cannot be recovered from it.
type Event struct {
	Type      EventType
	LookupKey string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	return fmt.Sprintf("%s %s @ %s", e.Type, e.LookupKey, time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339))
}
