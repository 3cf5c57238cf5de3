package events

import "peerlend/core/types"

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(*types.Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(*types.Event) {}

// Recorder collects emitted events in order. Used by tests and by the RPC
// layer to echo an invocation's events back to the caller.
type Recorder struct {
	Events []*types.Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt *types.Event) {
	if r == nil || evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}
