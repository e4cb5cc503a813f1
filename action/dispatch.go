package action

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devblok/koru/gfx"
)

// Dispatcher drains the pending actions of a notifier on one thread.
// A Main dispatcher is the front end, a GL dispatcher the backend.
type Dispatcher struct {
	thread Thread
	log    logrus.FieldLogger

	mutex  sync.Mutex
	warned map[*Action]struct{}
}

// NewDispatcher creates a dispatcher handling actions tagged with thread.
func NewDispatcher(thread Thread, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		thread: thread,
		log:    log.WithField("thread", thread.String()),
		warned: make(map[*Action]struct{}),
	}
}

// Thread returns the thread this dispatcher handles.
func (d *Dispatcher) Thread() Thread { return d.thread }

// Dispatch handles every action pending on n at entry whose thread matches,
// in list order. Handling is always done by the owner of the action's source;
// handled actions are removed from their source unless they were raised again
// while being handled, in which case they stay pending for the next drain.
// ctx is ignored by Main dispatchers. Returns the number of actions handled.
func (d *Dispatcher) Dispatch(ctx gfx.Context, n Notifier) int {
	if n.IsZero() {
		return 0
	}
	d.prune()

	var handled int
	for _, a := range n.Actions() {
		if a.thread != d.thread {
			continue
		}
		// an earlier handler may already have dealt with it
		if !n.Contains(a) {
			continue
		}
		raises := a.source.raises(a)
		if d.handle(ctx, a) {
			a.source.removeIfUnchanged(a, raises)
			d.forget(a)
			handled++
		} else {
			d.warn(a)
		}
	}
	return handled
}

func (d *Dispatcher) handle(ctx gfx.Context, a *Action) bool {
	owner := a.source.Owner()
	if owner == nil {
		return false
	}
	switch d.thread {
	case Main:
		return owner.HandleAction(a)
	case GL:
		return owner.HandleGLAction(ctx, a)
	default:
		return false
	}
}

func (d *Dispatcher) warn(a *Action) {
	d.mutex.Lock()
	_, seen := d.warned[a]
	d.warned[a] = struct{}{}
	d.mutex.Unlock()

	if !seen {
		d.log.WithField("action", string(a.id)).Warn("action not handled by its owner, leaving it pending")
	}
}

func (d *Dispatcher) forget(a *Action) {
	d.mutex.Lock()
	delete(d.warned, a)
	d.mutex.Unlock()
}

// prune drops warnings of actions that are no longer pending, including
// those whose source was released. They warn again if raised later.
func (d *Dispatcher) prune() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	for a := range d.warned {
		if a.source.settled(a) {
			delete(d.warned, a)
		}
	}
}

// Warned returns the number of unhandled actions this dispatcher has warned
// about and still tracks.
func (d *Dispatcher) Warned() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.warned)
}
