package meshrun

import "fmt"

// ErrDuplicateHandler is returned by a registry when a name is
// registered twice. It is fatal at startup: the caller should refuse
// to construct the worker rather than silently keep the first
// registration.
type ErrDuplicateHandler struct {
	Name string
}

func (e *ErrDuplicateHandler) Error() string {
	return fmt.Sprintf("meshrun: handler %q already registered", e.Name)
}

// ErrHandlerMissing means no handler was registered for a wire type
// name the broker delivered. It is surfaced to the caller as a wire
// error response; it never kills the worker.
type ErrHandlerMissing struct {
	Name string
}

func (e *ErrHandlerMissing) Error() string {
	return fmt.Sprintf("meshrun: no handler registered for %q", e.Name)
}

// DecodeError wraps a deserializer failure for a named wire type.
type DecodeError struct {
	TypeName string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("meshrun: decode %q: %v", e.TypeName, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HandlerFailure wraps the error a registered handler itself returned.
type HandlerFailure struct {
	Name string
	Err  error
}

func (e *HandlerFailure) Error() string {
	return fmt.Sprintf("meshrun: handler %q failed: %v", e.Name, e.Err)
}

func (e *HandlerFailure) Unwrap() error { return e.Err }

// AppendRejection wraps an event-store rejection of an append call,
// most often an optimistic-concurrency sequence collision.
type AppendRejection struct {
	AggregateID string
	Err         error
}

func (e *AppendRejection) Error() string {
	return fmt.Sprintf("meshrun: append rejected for aggregate %q: %v", e.AggregateID, e.Err)
}

func (e *AppendRejection) Unwrap() error { return e.Err }

// SourcingHandlerMissing means a replayed event's type has no
// registered sourcing handler on the aggregate definition. It is
// fatal for the one command being replayed, not for the worker.
type SourcingHandlerMissing struct {
	TypeName string
}

func (e *SourcingHandlerMissing) Error() string {
	return fmt.Sprintf("meshrun: no sourcing handler registered for %q", e.TypeName)
}
