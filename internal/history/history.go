package history

import (
	"context"
	"errors"
	"time"

	"github.com/loykin/welltrack/internal/record"
)

// EventType defines the kind of change being recorded.
type EventType string

const (
	EventUpsert   EventType = "upsert"
	EventDelete   EventType = "delete"
	EventWorkflow EventType = "workflow"
)

// Event is one accepted change to the tracker. Record carries the stored
// value for upserts and the key for deletes; Workflow is set for workflow
// changes.
type Event struct {
	Type       EventType     `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Actor      string        `json:"actor,omitempty"`
	Record     record.Record `json:"record"`
	Workflow   string        `json:"workflow,omitempty"`
}

// Sink is a destination for history events (audit/analytics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Send(context.Context, Event) error { return nil }

// Multi fans an event out to several sinks and joins their errors.
type Multi []Sink

func (m Multi) Send(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that has a Close method.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// DateArg converts an optional date to a nullable SQL argument.
func DateArg(d *record.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
