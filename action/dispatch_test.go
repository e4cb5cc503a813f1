package action_test

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/gfx/gfxtest"
)

type owner struct {
	name    string
	known   map[action.ID]bool
	handled []string
	log     *[]string
}

func newOwner(name string, log *[]string, known ...action.ID) *owner {
	o := &owner{name: name, known: make(map[action.ID]bool), log: log}
	for _, id := range known {
		o.known[id] = true
	}
	return o
}

func (o *owner) HandleAction(a *action.Action) bool {
	if !o.known[a.ID()] {
		return false
	}
	*o.log = append(*o.log, o.name+":"+string(a.ID()))
	return true
}

func (o *owner) HandleGLAction(ctx gfx.Context, a *action.Action) bool {
	if ctx == nil || !o.known[a.ID()] {
		return false
	}
	ctx.Arrays().Create()
	*o.log = append(*o.log, o.name+":gl:"+string(a.ID()))
	return true
}

func TestDispatchHandlesBySourceOwnerInOrder(t *testing.T) {
	var log []string
	g := action.NewGraph()
	root := g.NewNotifier(newOwner("root", &log))
	mesh := g.NewNotifier(newOwner("mesh", &log, "buffers", "bounds"))
	camera := g.NewNotifier(newOwner("camera", &log, "updated"))
	require.NoError(t, root.Connect(mesh))
	require.NoError(t, root.Connect(camera))

	buffers := action.New(mesh, "buffers", action.GL)
	bounds := action.New(mesh, "bounds", action.Main)
	updated := action.New(camera, "updated", action.Main)
	updated.Raise()
	buffers.Raise()
	bounds.Raise()

	front := action.NewDispatcher(action.Main, nil)
	assert.Equal(t, 2, front.Dispatch(nil, root))
	assert.Equal(t, []string{"camera:updated", "mesh:bounds"}, log)

	// GL action left untouched for the other thread
	require.Equal(t, 1, root.ActionCount())
	assert.Same(t, buffers, root.Action(0))
	assert.True(t, mesh.Contains(buffers))

	ctx := gfxtest.NewRecorder()
	back := action.NewDispatcher(action.GL, nil)
	assert.Equal(t, 1, back.Dispatch(ctx, root))
	assert.False(t, root.HasActions())
	assert.False(t, mesh.HasActions())
	assert.Equal(t, 1, ctx.Count("array.create"))
}

func TestDispatchLeavesUnhandledPendingAndWarnsOnce(t *testing.T) {
	var log []string
	logger, hook := logtest.NewNullLogger()
	g := action.NewGraph()
	n := g.NewNotifier(newOwner("node", &log))
	orphan := g.NewNotifier(nil)
	require.NoError(t, n.Connect(orphan))

	unknown := action.New(n, "unknown", action.Main)
	ownerless := action.New(orphan, "any", action.Main)
	unknown.Raise()
	ownerless.Raise()

	d := action.NewDispatcher(action.Main, logger)
	assert.Equal(t, 0, d.Dispatch(nil, n))
	assert.Equal(t, 0, d.Dispatch(nil, n))

	assert.Equal(t, 2, n.ActionCount())
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "unknown", entries[0].Data["action"])
	assert.Equal(t, "main", entries[0].Data["thread"])
}

type cascade struct {
	other *action.Action
}

func (c *cascade) HandleAction(a *action.Action) bool {
	// handling one action settles a later one as well
	c.other.Remove()
	return true
}

func (c *cascade) HandleGLAction(gfx.Context, *action.Action) bool { return false }

func TestDispatchSkipsActionsRemovedDuringDrain(t *testing.T) {
	g := action.NewGraph()
	var log []string
	second := g.NewNotifier(newOwner("second", &log, "b"))
	c := &cascade{}
	first := g.NewNotifier(c)
	root := g.NewNotifier(nil)
	require.NoError(t, root.Connect(first))
	require.NoError(t, root.Connect(second))

	a := action.New(first, "a", action.Main)
	b := action.New(second, "b", action.Main)
	c.other = b
	a.Raise()
	b.Raise()

	d := action.NewDispatcher(action.Main, nil)
	assert.Equal(t, 1, d.Dispatch(nil, root))
	assert.Empty(t, log)
	assert.False(t, root.HasActions())
}

func TestDispatchZeroNotifier(t *testing.T) {
	d := action.NewDispatcher(action.GL, nil)
	assert.Equal(t, 0, d.Dispatch(nil, action.Notifier{}))
}

// upload stands in for a GPU resource whose data may change while it uploads.
type upload struct {
	data     atomic.Int64
	uploaded atomic.Int64
	calls    atomic.Int64
	during   func()
	changed  *action.Action
}

func (u *upload) HandleAction(*action.Action) bool { return false }

func (u *upload) HandleGLAction(_ gfx.Context, a *action.Action) bool {
	u.uploaded.Store(u.data.Load())
	if u.calls.Add(1) == 1 && u.during != nil {
		u.during()
	}
	return true
}

// set stores new data and raises the change, like a mesh SetData.
func (u *upload) set(v int64) {
	u.data.Store(v)
	u.changed.Raise()
}

func TestDispatchKeepsActionRaisedWhileHandled(t *testing.T) {
	g := action.NewGraph()
	root := g.NewNotifier(nil)
	u := &upload{}
	mesh := g.NewNotifier(u)
	require.NoError(t, root.Connect(mesh))
	u.changed = action.New(mesh, "buffers", action.GL)

	u.set(1)
	// the update thread replaces the data after the first upload read it
	u.during = func() { u.set(2) }

	d := action.NewDispatcher(action.GL, nil)
	assert.Equal(t, 1, d.Dispatch(nil, root))
	assert.Equal(t, int64(1), u.uploaded.Load())
	assert.True(t, u.changed.Pending())
	assert.True(t, root.Contains(u.changed))

	assert.Equal(t, 1, d.Dispatch(nil, root))
	assert.Equal(t, int64(2), u.uploaded.Load())
	assert.False(t, u.changed.Pending())
	assert.False(t, root.HasActions())
}

func TestDispatchForgetsWarningsOfSettledActions(t *testing.T) {
	var log []string
	logger, hook := logtest.NewNullLogger()
	g := action.NewGraph()
	root := g.NewNotifier(nil)
	gone := g.NewNotifier(newOwner("gone", &log))
	kept := g.NewNotifier(newOwner("kept", &log))
	require.NoError(t, root.Connect(gone))
	require.NoError(t, root.Connect(kept))

	released := action.New(gone, "released", action.Main)
	withdrawn := action.New(kept, "withdrawn", action.Main)
	released.Raise()
	withdrawn.Raise()

	d := action.NewDispatcher(action.Main, logger)
	d.Dispatch(nil, root)
	assert.Equal(t, 2, d.Warned())
	assert.Len(t, hook.AllEntries(), 2)

	gone.Release()
	withdrawn.Remove()
	assert.False(t, gone.Live())
	assert.True(t, kept.Live())

	d.Dispatch(nil, root)
	assert.Equal(t, 0, d.Warned())

	// warned again once raised after being settled
	withdrawn.Raise()
	d.Dispatch(nil, root)
	assert.Len(t, hook.AllEntries(), 3)
}

func TestDispatchConcurrentWithRaises(t *testing.T) {
	const (
		leaves = 8
		rounds = 2000
	)
	g := action.NewGraph()
	root := g.NewNotifier(nil)
	mid := g.NewNotifier(nil)
	require.NoError(t, root.Connect(mid))

	var log []string
	mains := make([]*action.Action, leaves)
	leafNotifiers := make([]action.Notifier, leaves)
	for i := range mains {
		leafNotifiers[i] = g.NewNotifier(newOwner("leaf", &log))
		require.NoError(t, mid.Connect(leafNotifiers[i]))
		mains[i] = action.New(leafNotifiers[i], "state", action.Main)
	}
	u := &upload{}
	mesh := g.NewNotifier(u)
	require.NoError(t, mid.Connect(mesh))
	u.changed = action.New(mesh, "buffers", action.GL)

	raised := make([]bool, leaves)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		rnd := rand.New(rand.NewSource(1))
		for i := 0; i < rounds; i++ {
			k := rnd.Intn(leaves)
			if rnd.Intn(2) == 0 {
				mains[k].Raise()
				raised[k] = true
			} else {
				mains[k].Remove()
				raised[k] = false
			}
			u.set(int64(i))
		}
	}()

	d := action.NewDispatcher(action.GL, nil)
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		d.Dispatch(nil, root)
	}
	wg.Wait()
	d.Dispatch(nil, root)

	assert.Equal(t, int64(rounds-1), u.uploaded.Load(), "latest data uploaded")
	assert.False(t, u.changed.Pending())

	for _, n := range []action.Notifier{root, mid} {
		seen := make(map[*action.Action]int)
		for _, a := range n.Actions() {
			seen[a]++
		}
		for k, a := range mains {
			if raised[k] {
				assert.Equal(t, 1, seen[a], "leaf %d", k)
			} else {
				assert.Zero(t, seen[a], "leaf %d", k)
			}
		}
		assert.Equal(t, len(seen), n.ActionCount(), "no duplicates")
	}
	for k, a := range mains {
		assert.Equal(t, raised[k], a.Pending(), "leaf %d", k)
	}
	assert.Empty(t, log, "main actions untouched by the GL drain")
}
