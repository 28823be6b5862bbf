package posting

import (
	"context"
)

// EventSink receives committed transition events. Implementations
// (outbox writer, audit recorder) run after commit; a sink error is
// logged and swallowed so follow-up failures never undo a commit.
type EventSink interface {
	Record(ctx context.Context, ev TransitionEvent) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev TransitionEvent) error

// Record implements EventSink.
func (f SinkFunc) Record(ctx context.Context, ev TransitionEvent) error {
	return f(ctx, ev)
}
