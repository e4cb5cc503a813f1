// Package action implements dirty-state propagation for GPU resource owners.
//
// An Action says "something affecting a resource changed" and names the thread
// that must deal with it. Actions are raised on the Notifier of the object that
// owns them and bubble up to every connected parent notifier, so a whole
// composition (buffer, mesh, geometry, render node) can be drained from any
// ancestor. Dispatchers drain pending actions on one thread, calling back into
// the owner of each action and removing it once handled.
package action

import (
	"fmt"

	"github.com/devblok/koru/gfx"
)

// Thread identifies which thread must handle an action.
type Thread int

// Threads an action can be tagged with
const (
	// Main is the application/update thread
	Main Thread = iota
	// GL is the thread owning the backend context
	GL
)

func (t Thread) String() string {
	switch t {
	case Main:
		return "main"
	case GL:
		return "gl"
	default:
		return fmt.Sprintf("thread(%d)", int(t))
	}
}

// ID names the kind of change an Action describes.
type ID string

// Handler is implemented by owners of notifiers. Handling returns true when
// the action was consumed; unconsumed actions stay pending.
type Handler interface {
	// HandleAction handles a Main action on the update thread.
	HandleAction(a *Action) bool

	// HandleGLAction handles a GL action on the thread owning ctx.
	HandleGLAction(ctx gfx.Context, a *Action) bool
}

// Action is an immutable (source, id, thread) triple. Actions compare by
// pointer identity: two actions with the same ID are distinct entries.
type Action struct {
	source Notifier
	id     ID
	thread Thread

	// raises counts AddAction calls, guarded by the graph mutex
	raises uint64
}

// New creates an action owned by source. It is usually created once per owner
// and raised many times.
func New(source Notifier, id ID, thread Thread) *Action {
	if source.IsZero() {
		panic("action: new action with zero source notifier")
	}
	return &Action{
		source: source,
		id:     id,
		thread: thread,
	}
}

// Source returns the notifier owning the action.
func (a *Action) Source() Notifier { return a.source }

// ID returns the action kind.
func (a *Action) ID() ID { return a.id }

// Thread returns the thread the action must be handled on.
func (a *Action) Thread() Thread { return a.thread }

// Raise adds the action to its source, propagating upward.
func (a *Action) Raise() { a.source.AddAction(a) }

// Remove removes the action from its source, propagating upward.
func (a *Action) Remove() { a.source.RemoveAction(a) }

// Pending reports whether the action is pending on its source.
func (a *Action) Pending() bool { return a.source.Contains(a) }

func (a *Action) String() string {
	return fmt.Sprintf("%s@%s", a.id, a.thread)
}
