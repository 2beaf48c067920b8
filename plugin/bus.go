// Package plugin carries the event bus canvas controllers publish to.
package plugin

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/b0ase/cashboard/metrics"
)

// Event names emitted by canvas controllers.
const (
	EventNodeAdded    = "node.added"
	EventNodeUpdated  = "node.updated"
	EventNodeDeleted  = "node.deleted"
	EventEdgeAdded    = "edge.added"
	EventEdgeDeleted  = "edge.deleted"
	EventCanvasLoaded = "canvas.replaced"
	EventImported     = "canvas.imported"
)

type EventBus interface {
	Emit(ctx context.Context, event string, fields map[string]any) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, string, map[string]any) error { return nil }

// LogBus writes events at debug level.
type LogBus struct {
	Log *zap.Logger
}

func (b LogBus) Emit(_ context.Context, event string, fields map[string]any) error {
	if b.Log == nil {
		return nil
	}
	zf := make([]zap.Field, 0, len(fields)+1)
	zf = append(zf, zap.String("event", event))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	b.Log.Debug("canvas event", zf...)
	return nil
}

// MetricsBus counts events by name.
type MetricsBus struct {
	M *metrics.Metrics
}

func (b MetricsBus) Emit(_ context.Context, event string, fields map[string]any) error {
	b.M.Event(event)
	switch event {
	case EventNodeAdded:
		kind, _ := fields["kind"].(string)
		b.M.NodeAdded(kind)
	case EventNodeDeleted:
		b.M.NodeDeleted()
	}
	return nil
}

// Fanout delivers to every bus and joins their errors.
type Fanout []EventBus

func (f Fanout) Emit(ctx context.Context, event string, fields map[string]any) error {
	var errs []error
	for _, b := range f {
		if err := b.Emit(ctx, event, fields); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorded is one captured event.
type Recorded struct {
	Event  string
	Fields map[string]any
}

// Recorder keeps events in memory; useful for subscribers that poll.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Emit(_ context.Context, event string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, Fields: fields})
	return nil
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}
