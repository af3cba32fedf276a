package meshrun

import (
	"sort"
	"sync"
)

// Entry is the uniform, type-erased shape every registered handler is
// stored behind. handle decodes the wire payload, invokes the user
// handler against ctx, and returns the worker's native response type
// W (possibly its zero value) ready for the worker loop to act on.
type Entry[Ctx, W any] interface {
	handle(data []byte, ctx Ctx) (W, error)
}

// Registry binds wire type names to typed handler entries for one
// worker. It is built once at startup by the application and frozen
// for the worker's lifetime; concurrent reads after that point need
// no further synchronization, but Registry still guards its map since
// nothing prevents a caller from registering after Run.
type Registry[Ctx, W any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[Ctx, W]
}

// NewRegistry returns an empty registry.
func NewRegistry[Ctx, W any]() *Registry[Ctx, W] {
	return &Registry[Ctx, W]{entries: make(map[string]Entry[Ctx, W])}
}

func (r *Registry[Ctx, W]) insert(name string, e Entry[Ctx, W]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return &ErrDuplicateHandler{Name: name}
	}
	r.entries[name] = e
	return nil
}

// Get returns the entry registered for name, if any.
func (r *Registry[Ctx, W]) Get(name string) (Entry[Ctx, W], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns every registered wire type name, sorted, mainly so
// that subscription order is deterministic.
func (r *Registry[Ctx, W]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many names are registered.
func (r *Registry[Ctx, W]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

type voidEntry[T, Ctx, W any] struct {
	name        string
	deserialize func([]byte) (T, error)
	handle_     func(T, Ctx) error
}

func (e *voidEntry[T, Ctx, W]) handle(data []byte, ctx Ctx) (W, error) {
	var zero W
	v, err := e.deserialize(data)
	if err != nil {
		return zero, &DecodeError{TypeName: e.name, Err: err}
	}
	if err := e.handle_(v, ctx); err != nil {
		return zero, &HandlerFailure{Name: e.name, Err: err}
	}
	return zero, nil
}

// InsertVoid registers a handler whose return is acknowledgement-only:
// it succeeds or fails, and produces no native response value.
func InsertVoid[T, Ctx, W any](r *Registry[Ctx, W], name string, deserialize func([]byte) (T, error), handle func(T, Ctx) error) error {
	entry := &voidEntry[T, Ctx, W]{name: name, deserialize: deserialize, handle_: handle}
	return r.insert(name, entry)
}

type outputEntry[T, Ctx, W any] struct {
	name        string
	deserialize func([]byte) (T, error)
	handle_     func(T, Ctx) (W, error)
}

func (e *outputEntry[T, Ctx, W]) handle(data []byte, ctx Ctx) (W, error) {
	var zero W
	v, err := e.deserialize(data)
	if err != nil {
		return zero, &DecodeError{TypeName: e.name, Err: err}
	}
	out, err := e.handle_(v, ctx)
	if err != nil {
		return zero, &HandlerFailure{Name: e.name, Err: err}
	}
	return out, nil
}

// InsertWithOutput registers a handler that already produces its
// response shaped as the worker's native response type W.
func InsertWithOutput[T, Ctx, W any](r *Registry[Ctx, W], name string, deserialize func([]byte) (T, error), handle func(T, Ctx) (W, error)) error {
	entry := &outputEntry[T, Ctx, W]{name: name, deserialize: deserialize, handle_: handle}
	return r.insert(name, entry)
}

type wrappedEntry[T, R, Ctx, W any] struct {
	name             string
	deserialize      func([]byte) (T, error)
	handle_          func(T, Ctx) (R, error)
	responseTypeName string
	wrap             func(responseTypeName string, v R) (W, error)
}

func (e *wrappedEntry[T, R, Ctx, W]) handle(data []byte, ctx Ctx) (W, error) {
	var zero W
	v, err := e.deserialize(data)
	if err != nil {
		return zero, &DecodeError{TypeName: e.name, Err: err}
	}
	result, err := e.handle_(v, ctx)
	if err != nil {
		return zero, &HandlerFailure{Name: e.name, Err: err}
	}
	wrapped, err := e.wrap(e.responseTypeName, result)
	if err != nil {
		return zero, &DecodeError{TypeName: e.responseTypeName, Err: err}
	}
	return wrapped, nil
}

// InsertWithMappedOutput registers a handler that returns a plain
// typed result R; wrap re-shapes it into the worker's native response
// type W, tagged with responseTypeName.
func InsertWithMappedOutput[T, R, Ctx, W any](
	r *Registry[Ctx, W],
	name string,
	deserialize func([]byte) (T, error),
	handle func(T, Ctx) (R, error),
	responseTypeName string,
	wrap func(responseTypeName string, v R) (W, error),
) error {
	entry := &wrappedEntry[T, R, Ctx, W]{
		name:             name,
		deserialize:      deserialize,
		handle_:          handle,
		responseTypeName: responseTypeName,
		wrap:             wrap,
	}
	return r.insert(name, entry)
}
