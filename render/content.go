package render

import (
	"github.com/devblok/koru/scene"
	"github.com/devblok/koru/utility/pool"
)

// ContentCreator turns collected graph content into render tasks.
type ContentCreator struct {
	tasks     *pool.Pool[*RenderTask]
	collector scene.RenderNodeContentCollector
}

// NewContentCreator creates a creator taking tasks from tasks.
func NewContentCreator(tasks *pool.Pool[*RenderTask]) *ContentCreator {
	return &ContentCreator{tasks: tasks}
}

// Create queues one task per render node of content that has a renderer,
// in collection order. Render nodes without a renderer only group and
// carry cameras, they produce no task. Returns the number of tasks queued.
func (c *ContentCreator) Create(content *scene.GraphContent, queue *TaskQueue) int {
	var created int
	for _, rn := range content.RenderNodes {
		renderer := rn.Renderer()
		if renderer == nil {
			continue
		}

		c.collector.Collect(rn)
		task := c.tasks.Get()
		task.Renderer = renderer
		// the collector reuses its result slice
		task.Nodes = append(task.Nodes[:0], c.collector.Result()...)
		queue.Push(task)
		c.collector.Reset()
		created++
	}
	return created
}
