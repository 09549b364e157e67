package attachment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Event names a point in the upload flow that hooks can attach to.
type Event string

// EventMetadataGenerated fires after the base record for an upload is built and
// before it is stored.
const EventMetadataGenerated Event = "attachment_metadata_generated"

// Hook receives the current record and the attachment id and returns the record to
// pass on. Returning an error aborts the upload.
type Hook func(ctx context.Context, rec Record, id uuid.UUID) (Record, error)

// Dispatcher holds hooks per event. The zero value is ready to use.
type Dispatcher struct {
	mu    sync.RWMutex
	hooks map[Event][]Hook
}

// On registers h for e. Hooks run in registration order.
func (d *Dispatcher) On(e Event, h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hooks == nil {
		d.hooks = make(map[Event][]Hook)
	}
	d.hooks[e] = append(d.hooks[e], h)
}

// Dispatch threads rec through every hook registered for e.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event, rec Record) (Record, error) {
	d.mu.RLock()
	hooks := append([]Hook(nil), d.hooks[e]...)
	d.mu.RUnlock()

	for i, h := range hooks {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		next, err := h(ctx, rec, rec.ID)
		if err != nil {
			return rec, fmt.Errorf("%s hook %d: %w", e, i, err)
		}
		rec = next
	}
	return rec, nil
}
