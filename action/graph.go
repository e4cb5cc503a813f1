package action

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCycle is returned when a connection would make a notifier its own ancestor.
var ErrCycle = errors.New("action: connection would create a notifier cycle")

// Handle addresses a notifier record inside a Graph. The generation
// invalidates handles of released records.
type Handle struct {
	index      uint32
	generation uint32
}

type record struct {
	generation uint32
	live       bool
	owner      Handler

	pending  []*Action
	parents  []uint32
	children []uint32
}

// Graph is an arena of notifier records. Edges are stored as index sets, all
// mutation is serialized by a single mutex so the update and GL threads may
// raise and drain concurrently.
type Graph struct {
	mutex   sync.Mutex
	records []record
	free    []uint32
}

// NewGraph creates an empty notifier graph.
func NewGraph() *Graph {
	return &Graph{}
}

// NewNotifier allocates a notifier whose actions are handled by owner.
// owner may be nil for pure aggregating notifiers.
func (g *Graph) NewNotifier(owner Handler) Notifier {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = uint32(len(g.records))
		g.records = append(g.records, record{})
	}
	r := &g.records[idx]
	r.live = true
	r.owner = owner
	return Notifier{
		graph:  g,
		handle: Handle{index: idx, generation: r.generation},
	}
}

// Len returns the number of live notifiers.
func (g *Graph) Len() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.records) - len(g.free)
}

func (g *Graph) lookup(h Handle) *record {
	if int(h.index) >= len(g.records) {
		panic(fmt.Sprintf("action: notifier handle %d out of range", h.index))
	}
	r := &g.records[h.index]
	if !r.live || r.generation != h.generation {
		panic(fmt.Sprintf("action: stale notifier handle %d (generation %d, current %d)", h.index, h.generation, r.generation))
	}
	return r
}

func (g *Graph) addLocked(idx uint32, a *Action) {
	r := &g.records[idx]
	r.pending = appendUnique(r.pending, a)
	for _, p := range r.parents {
		g.addLocked(p, a)
	}
}

func (g *Graph) removeLocked(idx uint32, a *Action) {
	r := &g.records[idx]
	r.pending = without(r.pending, a)
	for _, p := range r.parents {
		g.removeLocked(p, a)
	}
}

// isAncestorLocked reports whether anc is reachable from idx through parent edges.
func (g *Graph) isAncestorLocked(idx, anc uint32) bool {
	stack := []uint32{idx}
	seen := map[uint32]bool{idx: true}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.records[cur].parents {
			if p == anc {
				return true
			}
			if !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}
	return false
}

func (g *Graph) connect(parent, child Handle) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	p := g.lookup(parent)
	c := g.lookup(child)
	if parent.index == child.index || g.isAncestorLocked(parent.index, child.index) {
		return ErrCycle
	}
	if !contains(c.parents, parent.index) {
		c.parents = append(c.parents, parent.index)
		p.children = append(p.children, child.index)
	}
	for _, a := range c.pending {
		g.addLocked(parent.index, a)
	}
	return nil
}

func (g *Graph) disconnect(parent, child Handle) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	p := g.lookup(parent)
	c := g.lookup(child)
	c.parents = withoutIndex(c.parents, parent.index)
	p.children = withoutIndex(p.children, child.index)
	for _, a := range c.pending {
		g.removeLocked(parent.index, a)
	}
}

func (g *Graph) release(h Handle) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	r := g.lookup(h)
	for _, p := range r.parents {
		for _, a := range r.pending {
			g.removeLocked(p, a)
		}
		pr := &g.records[p]
		pr.children = withoutIndex(pr.children, h.index)
	}
	for _, c := range r.children {
		cr := &g.records[c]
		cr.parents = withoutIndex(cr.parents, h.index)
	}

	r.generation++
	r.live = false
	r.owner = nil
	r.pending = nil
	r.parents = nil
	r.children = nil
	g.free = append(g.free, h.index)
}

func appendUnique(list []*Action, a *Action) []*Action {
	return append(without(list, a), a)
}

func without(list []*Action, a *Action) []*Action {
	for i, v := range list {
		if v == a {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

func contains(list []uint32, idx uint32) bool {
	for _, v := range list {
		if v == idx {
			return true
		}
	}
	return false
}

func withoutIndex(list []uint32, idx uint32) []uint32 {
	for i, v := range list {
		if v == idx {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
