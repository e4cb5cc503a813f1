package render

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/core"
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/scene"
	"github.com/devblok/koru/utility/pool"
)

// Frame runs the two phases of a frame. Update runs on the update goroutine
// and queues render tasks, Render runs on the GL goroutine and drains them.
// The two may overlap across frames.
type Frame struct {
	root  *scene.Node
	app   core.Application
	clock *core.Clock
	debug bool
	log   logrus.FieldLogger

	main *action.Dispatcher
	gl   *action.Dispatcher

	contents  *pool.Pool[*scene.GraphContent]
	tasks     *pool.Pool[*RenderTask]
	collector scene.GraphContentCollector
	creator   *ContentCreator

	// staging is only touched by Update, batch only by the render side
	staging *TaskQueue
	queue   *TaskQueue
	batch   []*RenderTask
}

// NewFrame creates a frame updating and rendering the graph under root.
// A nil clock reads the wall clock, a nil log the standard logger.
func NewFrame(root *scene.Node, app core.Application, cfg core.Configuration, clock *core.Clock, log logrus.FieldLogger) *Frame {
	if clock == nil {
		clock = core.NewClock()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	tasks := pool.New(NewRenderTask)
	return &Frame{
		root:     root,
		app:      app,
		clock:    clock,
		debug:    cfg.Debug,
		log:      log,
		main:     action.NewDispatcher(action.Main, log),
		gl:       action.NewDispatcher(action.GL, log),
		contents: pool.New(scene.NewGraphContent),
		tasks:    tasks,
		creator:  NewContentCreator(tasks),
		staging:  NewTaskQueue(),
		queue:    NewTaskQueue(),
	}
}

// Root returns the root of the rendered graph.
func (f *Frame) Root() *scene.Node { return f.root }

// Queue returns the queue of tasks waiting to be rendered.
func (f *Frame) Queue() *TaskQueue { return f.queue }

// TaskPool returns the pool render tasks are taken from.
func (f *Frame) TaskPool() *pool.Pool[*RenderTask] { return f.tasks }

// Update runs the update phase: the application and the scene graph are
// updated, main thread actions handled and the frame's render tasks queued.
// Returns the number of tasks queued.
func (f *Frame) Update() int {
	dt := f.clock.Tick()
	if f.app != nil {
		f.app.OnUpdate(dt)
	}
	f.root.Update(dt)

	content := f.contents.Get()
	defer f.contents.Put(content)
	f.collector.Collect(f.root, content)

	for _, rn := range content.RenderNodes {
		f.main.Dispatch(nil, rn.Notifier())
	}
	for _, n := range content.Nodes {
		f.main.Dispatch(nil, n.Notifier())
	}

	created := f.creator.Create(content, f.staging)
	f.queue.Append(f.staging)
	return created
}

// Render runs the render phase on the GL goroutine: every queued task is
// run in FIFO order and returned to the pool, so frames queued by several
// updates are drawn together. In debug configurations a GL error after a
// task panics. Returns the number of tasks rendered.
func (f *Frame) Render(ctx gfx.Context) int {
	var rendered int
	for {
		task, ok := f.queue.Pop()
		if !ok {
			return rendered
		}
		rendered++
		f.run(ctx, task, rendered)
	}
}

// RenderNext renders the tasks of the oldest frame queued by Update and
// nothing else. ok is false when no frame is queued.
func (f *Frame) RenderNext(ctx gfx.Context) (rendered int, ok bool) {
	f.batch, ok = f.queue.PopBatch(f.batch[:0])
	for i, task := range f.batch {
		f.batch[i] = nil
		rendered++
		f.run(ctx, task, rendered)
	}
	return rendered, ok
}

func (f *Frame) run(ctx gfx.Context, task *RenderTask, n int) {
	task.Run(ctx, f.gl)
	f.tasks.Put(task)

	if f.debug {
		if err := ctx.Error(); err != nil {
			f.log.WithError(err).WithField("task", n).Panic("GL error after render task")
		}
	}
}

// Release releases the GPU resources of every geometry in the graph. They
// are recreated on their next use. Must be called on the GL goroutine.
func (f *Frame) Release(ctx gfx.Context) {
	content := f.contents.Get()
	defer f.contents.Put(content)
	f.collector.Collect(f.root, content)

	released := make(map[gfx.Releasable]struct{})
	release := func(r gfx.Releasable) {
		if _, ok := released[r]; ok {
			return
		}
		released[r] = struct{}{}
		r.Release(ctx)
	}
	for _, n := range content.Nodes {
		if n.Kind() != scene.KindGeometry {
			continue
		}
		if m := n.Mesh(); m != nil {
			release(m)
		}
		if t := n.Texture(); t != nil {
			release(t)
		}
	}
	f.log.WithField("resources", len(released)).Debug("released GPU resources")
}
