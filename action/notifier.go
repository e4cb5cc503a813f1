package action

import "fmt"

// Notifier is a value handle to a notifier record in a Graph. It holds an
// ordered list of pending actions, unique by identity, and a set of parents
// that mirror every add and remove. Notifiers do not own their parents or
// children; edges exist only through Connect and Disconnect.
type Notifier struct {
	graph  *Graph
	handle Handle
}

// IsZero reports whether n was never allocated from a Graph.
func (n Notifier) IsZero() bool { return n.graph == nil }

// Graph returns the graph n lives in.
func (n Notifier) Graph() *Graph { return n.graph }

// Handle returns the arena handle of n.
func (n Notifier) Handle() Handle { return n.handle }

func (n Notifier) mustGraph() *Graph {
	if n.graph == nil {
		panic("action: use of zero Notifier")
	}
	return n.graph
}

// Owner returns the handler that n's actions are dispatched to.
func (n Notifier) Owner() Handler {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.lookup(n.handle).owner
}

// AddAction moves a to the end of the pending list, adding it when absent,
// and reports the add to every parent.
func (n Notifier) AddAction(a *Action) {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.lookup(n.handle)
	a.raises++
	g.addLocked(n.handle.index, a)
}

// raises returns how many times a was added so far.
func (n Notifier) raises(a *Action) uint64 {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return a.raises
}

// removeIfUnchanged removes a like RemoveAction unless it was added again
// since raises was read. Reports whether a was removed.
func (n Notifier) removeIfUnchanged(a *Action, raises uint64) bool {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.lookup(n.handle)
	if a.raises != raises {
		return false
	}
	g.removeLocked(n.handle.index, a)
	return true
}

// RemoveAction removes a from the pending list and reports the removal to
// every parent, whether or not a was pending here.
func (n Notifier) RemoveAction(a *Action) {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.lookup(n.handle)
	g.removeLocked(n.handle.index, a)
}

// Connect makes n a parent of child and replays every action pending on child
// as added to n. It returns ErrCycle when n is child or already below it.
func (n Notifier) Connect(child Notifier) error {
	g := n.mustGraph()
	if child.graph != g {
		panic("action: connecting notifiers of different graphs")
	}
	return g.connect(n.handle, child.handle)
}

// Disconnect removes n as a parent of child and replays every action pending
// on child as removed from n. child's own list is untouched.
func (n Notifier) Disconnect(child Notifier) {
	g := n.mustGraph()
	if child.graph != g {
		panic("action: disconnecting notifiers of different graphs")
	}
	g.disconnect(n.handle, child.handle)
}

// Live reports whether n still addresses an allocated record. Unlike the
// other accessors it does not panic on released notifiers.
func (n Notifier) Live() bool {
	if n.graph == nil {
		return false
	}
	n.graph.mutex.Lock()
	defer n.graph.mutex.Unlock()
	return n.recordLocked() != nil
}

// settled reports whether a is no longer pending on n, including when n was
// released.
func (n Notifier) settled(a *Action) bool {
	if n.graph == nil {
		return true
	}
	n.graph.mutex.Lock()
	defer n.graph.mutex.Unlock()
	r := n.recordLocked()
	if r == nil {
		return true
	}
	for _, v := range r.pending {
		if v == a {
			return false
		}
	}
	return true
}

func (n Notifier) recordLocked() *record {
	g := n.graph
	if int(n.handle.index) >= len(g.records) {
		return nil
	}
	r := &g.records[n.handle.index]
	if !r.live || r.generation != n.handle.generation {
		return nil
	}
	return r
}

// Release detaches n from all parents and children and frees its record.
// Pending actions are withdrawn from former parents. n must not be used after.
func (n Notifier) Release() {
	n.mustGraph().release(n.handle)
}

// ActionCount returns the number of pending actions.
func (n Notifier) ActionCount() int {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.lookup(n.handle).pending)
}

// HasActions reports whether any action is pending.
func (n Notifier) HasActions() bool {
	return n.ActionCount() > 0
}

// Action returns the pending action at index i. It panics when i is out of range.
func (n Notifier) Action(i int) *Action {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	pending := g.lookup(n.handle).pending
	if i < 0 || i >= len(pending) {
		panic(fmt.Sprintf("action: index %d out of range [0,%d)", i, len(pending)))
	}
	return pending[i]
}

// Actions returns a snapshot of the pending list.
func (n Notifier) Actions() []*Action {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return append([]*Action(nil), g.lookup(n.handle).pending...)
}

// Contains reports whether a is pending on n.
func (n Notifier) Contains(a *Action) bool {
	g := n.mustGraph()
	g.mutex.Lock()
	defer g.mutex.Unlock()
	for _, v := range g.lookup(n.handle).pending {
		if v == a {
			return true
		}
	}
	return false
}
