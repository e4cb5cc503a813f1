// Package render turns a scene graph into render tasks on the update
// goroutine and draws them on the GL goroutine.
package render

import (
	"fmt"
	"sync"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/scene"
)

// RenderTask is everything one render node draws in a frame: its renderer
// and the nodes collected for it. Tasks are pooled.
type RenderTask struct {
	Renderer scene.Renderer
	Nodes    []*scene.Node
}

// NewRenderTask creates an empty task.
func NewRenderTask() *RenderTask {
	return &RenderTask{}
}

// Reset clears the task for reuse, keeping node capacity.
func (t *RenderTask) Reset() {
	t.Renderer = nil
	for i := range t.Nodes {
		t.Nodes[i] = nil
	}
	t.Nodes = t.Nodes[:0]
}

// Run handles the pending GL actions of every node, then renders the nodes.
// gl must be a GL dispatcher.
func (t *RenderTask) Run(ctx gfx.Context, gl *action.Dispatcher) {
	if gl.Thread() != action.GL {
		panic(fmt.Sprintf("render: task run with a %s dispatcher", gl.Thread()))
	}
	for _, n := range t.Nodes {
		gl.Dispatch(ctx, n.Notifier())
	}
	t.Renderer.Render(ctx, t.Nodes)
}

// TaskQueue is a FIFO of render tasks handed from the update goroutine
// to the render goroutine. Tasks arrive in batches: Push adds a batch of one,
// Append adds every task of another queue as one batch, which is how a whole
// frame is handed over.
type TaskQueue struct {
	mutex   sync.Mutex
	tasks   []*RenderTask
	head    int
	batches []int
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Push appends t at the tail.
func (q *TaskQueue) Push(t *RenderTask) {
	q.mutex.Lock()
	q.tasks = append(q.tasks, t)
	q.batches = append(q.batches, 1)
	q.mutex.Unlock()
}

// Pop removes the head task. ok is false when the queue is empty.
func (q *TaskQueue) Pop() (t *RenderTask, ok bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.head == len(q.tasks) {
		return nil, false
	}
	for q.batches[0] == 0 {
		q.batches = q.batches[1:]
	}
	q.batches[0]--
	t = q.popLocked()
	if q.head == 0 {
		// drained one by one, trailing empty batches go with the last task
		q.batches = q.batches[:0]
	}
	return t, true
}

// PopBatch removes the oldest batch, appending its tasks to dst. ok is false
// when no batch is queued. A batch may be empty.
func (q *TaskQueue) PopBatch(dst []*RenderTask) (tasks []*RenderTask, ok bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.batches) == 0 {
		return dst, false
	}
	n := q.batches[0]
	q.batches = q.batches[1:]
	for i := 0; i < n; i++ {
		dst = append(dst, q.popLocked())
	}
	if len(q.batches) == 0 {
		q.batches = nil
	}
	return dst, true
}

func (q *TaskQueue) popLocked() *RenderTask {
	t := q.tasks[q.head]
	q.tasks[q.head] = nil
	q.head++
	if q.head == len(q.tasks) {
		q.tasks = q.tasks[:0]
		q.head = 0
	}
	return t
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.tasks) - q.head
}

// Batches returns the number of queued batches, empty ones included.
func (q *TaskQueue) Batches() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.batches)
}

// Append moves every task of other to the tail of q as a single batch, so a
// consumer never observes part of other. An empty other still adds an empty
// batch.
func (q *TaskQueue) Append(other *TaskQueue) {
	other.mutex.Lock()
	moved := append([]*RenderTask(nil), other.tasks[other.head:]...)
	for i := range other.tasks {
		other.tasks[i] = nil
	}
	other.tasks = other.tasks[:0]
	other.head = 0
	other.batches = other.batches[:0]
	other.mutex.Unlock()

	q.mutex.Lock()
	q.tasks = append(q.tasks, moved...)
	q.batches = append(q.batches, len(moved))
	q.mutex.Unlock()
}
