package pipe

import (
	"fmt"
	"reflect"
)

// Mode selects what a Reader or Writer does when the pipe is not ready.
type Mode int

const (
	// Blocking operations suspend the goroutine until they can complete.
	Blocking Mode = iota
	// NonBlocking operations return a not-ready result immediately.
	NonBlocking
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "Blocking"
	case NonBlocking:
		return "NonBlocking"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func modeMustBeValid(m Mode) {
	if m != Blocking && m != NonBlocking {
		panic(fmt.Sprintf("invalid access mode %d", int(m)))
	}
}

// Reader is a read-only, typed view of a pipe.
type Reader[T any] struct {
	pipe *Pipe
	mode Mode
}

// NewReader binds a typed reader to p.
func NewReader[T any](p *Pipe, mode Mode) Reader[T] {
	if p == nil {
		panic("reader must be bound to a pipe")
	}

	modeMustBeValid(mode)

	return Reader[T]{pipe: p, mode: mode}
}

// Pipe returns the underlying pipe.
func (r Reader[T]) Pipe() *Pipe {
	return r.pipe
}

// Mode returns the access mode of the reader.
func (r Reader[T]) Mode() Mode {
	return r.mode
}

// Read removes and returns the oldest element. In blocking mode it waits and
// always reports true. In non-blocking mode it reports false when the pipe is
// empty.
func (r Reader[T]) Read() (T, bool) {
	if r.mode == NonBlocking {
		return r.TryRead()
	}

	return r.ReadBlocking(), true
}

// TryRead reads without waiting, whatever the mode of the reader.
func (r Reader[T]) TryRead() (T, bool) {
	e, ok := r.pipe.TryRead()
	if !ok {
		var zero T
		return zero, false
	}

	return r.cast(e), true
}

// ReadBlocking waits for an element, whatever the mode of the reader.
func (r Reader[T]) ReadBlocking() T {
	return r.cast(r.pipe.ReadBlocking())
}

func (r Reader[T]) cast(e any) T {
	if e == nil {
		var zero T
		return zero
	}

	v, ok := e.(T)
	if !ok {
		panic(fmt.Sprintf("pipe %s: element of type %T read as %v",
			r.pipe.Name(), e, reflect.TypeOf((*T)(nil)).Elem()))
	}

	return v
}

// Writer is a write-only, typed view of a pipe.
type Writer[T any] struct {
	pipe *Pipe
	mode Mode
}

// NewWriter binds a typed writer to p.
func NewWriter[T any](p *Pipe, mode Mode) Writer[T] {
	if p == nil {
		panic("writer must be bound to a pipe")
	}

	modeMustBeValid(mode)

	return Writer[T]{pipe: p, mode: mode}
}

// Pipe returns the underlying pipe.
func (w Writer[T]) Pipe() *Pipe {
	return w.pipe
}

// Mode returns the access mode of the writer.
func (w Writer[T]) Mode() Mode {
	return w.mode
}

// Write appends v. In blocking mode it waits for room and always reports
// true. In non-blocking mode it reports false when the pipe is full.
func (w Writer[T]) Write(v T) bool {
	if w.mode == NonBlocking {
		return w.TryWrite(v)
	}

	w.WriteBlocking(v)

	return true
}

// TryWrite writes without waiting, whatever the mode of the writer.
func (w Writer[T]) TryWrite(v T) bool {
	return w.pipe.TryWrite(v)
}

// WriteBlocking waits for room, whatever the mode of the writer.
func (w Writer[T]) WriteBlocking(v T) {
	w.pipe.WriteBlocking(v)
}
