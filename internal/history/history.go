// Package history records service lifecycle events for later inspection.
// Writes are best-effort: a failing sink never fails a start or stop.
package history

import (
	"context"
	"time"
)

type EventType string

const (
	EventStart EventType = "start"
	EventStop  EventType = "stop"
)

// Event is one lifecycle transition of a managed dev server.
type Event struct {
	Type        EventType `json:"type"`
	Service     string    `json:"service"`
	ProjectPath string    `json:"project_path"`
	PID         int       `json:"pid"`
	OccurredAt  time.Time `json:"occurred_at"`
	Detail      string    `json:"detail,omitempty"`
}

// Sink receives lifecycle events.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
