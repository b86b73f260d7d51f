// Package sequence implements the Sequence Runner: binding
// declared step handlers to an externally supplied step configuration,
// running them in order, and deriving a verdict for each from its spec
// list.
package sequence

import (
	"context"
	"sync/atomic"

	"github.com/aoyoqui/benderr/pkg/types"
)

// HandlerFunc is a step implementation. Returning an error marks the step
// Aborted; a nil error with a Value is matched against the step's specs.
type HandlerFunc func(ctx context.Context) (types.Value, error)

// Handler is one registered (name, implementation) pair, stamped with its
// declaration order: a process-global counter captured at
// handler-declaration time gives a stable ordering.
type Handler struct {
	StepName string
	Order    int
	Run      HandlerFunc
}

// Definition is implemented by a concrete test sequence. Handlers must
// return its registered handlers; order of the returned slice need not be
// declaration order — the Runner sorts by Handler.Order before binding.
type Definition interface {
	Name() string
	Handlers() []Handler
}

var orderCounter int64

// nextOrder returns a monotonically increasing declaration-order token,
// shared across all Builders in the process the way the original's
// itertools.count() class variable was shared across all Sequence
// subclasses.
func nextOrder() int {
	return int(atomic.AddInt64(&orderCounter, 1))
}

// Builder accumulates handlers in declaration order. It is the Go
// equivalent of the original's @Sequence.step decorator: instead of
// reflecting over tagged methods, a concrete Definition's constructor
// calls Step(...) for each handler in source order.
type Builder struct {
	name     string
	handlers []Handler
}

// NewBuilder starts a handler registration for a sequence named name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Step registers a handler under stepName. Calling it with an empty
// stepName still records the handler; binding validation is what turns an
// empty name into a StepsConfigError.
func (b *Builder) Step(stepName string, fn HandlerFunc) *Builder {
	b.handlers = append(b.handlers, Handler{StepName: stepName, Order: nextOrder(), Run: fn})
	return b
}

// Name returns the sequence name.
func (b *Builder) Name() string { return b.name }

// Handlers returns the registered handlers.
func (b *Builder) Handlers() []Handler { return b.handlers }
