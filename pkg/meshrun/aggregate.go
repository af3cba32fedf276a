package meshrun

import "github.com/cuemby/meshrun/meshpb"

// ApplicableEvent is one event a command handler wants appended to
// the aggregate's log. TypeName is the wire type looked up both for
// registry dispatch and for the sourcing handler that will replay it
// on future commands; Data is its already-encoded payload.
type ApplicableEvent struct {
	TypeName string
	Data     []byte
}

// EmitApplicableEventsAndResponse is the native response type of a
// command handler registered against an aggregate: the events to
// append, in order, and the optional response payload to return to
// the caller. AggregateID is carried so that a handler may target an
// aggregate different from the one implied by the inbound command
// envelope (the common case is the same aggregate).
type EmitApplicableEventsAndResponse struct {
	AggregateID string
	Events      []ApplicableEvent
	Response    *meshpb.SerializedObject
}

// SourcingEntry applies one decoded event type to a projection,
// returning the updated projection.
type SourcingEntry[P any] interface {
	apply(data []byte, p P) (P, error)
}

type sourcingEntry[T, P any] struct {
	name    string
	decode  func([]byte) (T, error)
	applyFn func(T, P) (P, error)
}

func (e *sourcingEntry[T, P]) apply(data []byte, p P) (P, error) {
	v, err := e.decode(data)
	if err != nil {
		var zero P
		return zero, &DecodeError{TypeName: e.name, Err: err}
	}
	return e.applyFn(v, p)
}

// SourcingRegistry maps an event's wire type name to the function
// that folds it into a projection. Unlike Registry, a miss here is
// not a registry-wide concern: it only fails the one command whose
// replay hit an unrecognized event type.
type SourcingRegistry[P any] struct {
	entries map[string]SourcingEntry[P]
}

// NewSourcingRegistry returns an empty sourcing registry.
func NewSourcingRegistry[P any]() *SourcingRegistry[P] {
	return &SourcingRegistry[P]{entries: make(map[string]SourcingEntry[P])}
}

// InsertSourcing registers the fold function for one event type. A
// duplicate name is a startup error, same as the command registry.
func InsertSourcing[T, P any](r *SourcingRegistry[P], name string, decode func([]byte) (T, error), apply func(T, P) (P, error)) error {
	if _, ok := r.entries[name]; ok {
		return &ErrDuplicateHandler{Name: name}
	}
	r.entries[name] = &sourcingEntry[T, P]{name: name, decode: decode, applyFn: apply}
	return nil
}

// Get returns the sourcing entry for name, if any.
func (r *SourcingRegistry[P]) Get(name string) (SourcingEntry[P], bool) {
	e, ok := r.entries[name]
	return e, ok
}

// AggregateDefinition binds a projection type to the command
// handlers that mutate it and the sourcing handlers that rebuild it
// from history. ProjectionName is also used, unchanged, as the
// aggregate_type on every event this aggregate appends.
type AggregateDefinition[P any] struct {
	ProjectionName  string
	EmptyProjection func() P
	Commands        *Registry[P, *EmitApplicableEventsAndResponse]
	Sourcing        *SourcingRegistry[P]
}

// NewAggregateDefinition returns a definition with empty command and
// sourcing registries ready for InsertVoid/InsertWithOutput/
// InsertWithMappedOutput/InsertSourcing calls.
func NewAggregateDefinition[P any](projectionName string, emptyProjection func() P) *AggregateDefinition[P] {
	return &AggregateDefinition[P]{
		ProjectionName:  projectionName,
		EmptyProjection: emptyProjection,
		Commands:        NewRegistry[P, *EmitApplicableEventsAndResponse](),
		Sourcing:        NewSourcingRegistry[P](),
	}
}

// Replay folds every event in order onto a fresh projection using the
// aggregate's sourcing registry.
func (d *AggregateDefinition[P]) Replay(events []*meshpb.Event) (P, error) {
	return d.ReplayOnto(d.EmptyProjection(), events)
}

// ReplayOnto folds events onto an existing projection instead of a
// fresh one, used by the opt-in snapshot cache to replay only the
// events that postdate a cached projection.
func (d *AggregateDefinition[P]) ReplayOnto(projection P, events []*meshpb.Event) (P, error) {
	for _, event := range events {
		entry, ok := d.Sourcing.Get(event.Payload.TypeName)
		if !ok {
			return projection, &SourcingHandlerMissing{TypeName: event.Payload.TypeName}
		}
		updated, err := entry.apply(event.Payload.Data, projection)
		if err != nil {
			return projection, err
		}
		projection = updated
	}
	return projection, nil
}
