// Package engine drives a Frame from a host surface: surface lifecycle
// callbacks and the pipelined update/render loop.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/core"
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/render"
	"github.com/devblok/koru/scene"
)

// ErrNoSurface is returned when frames are requested before OnSurfaceCreated.
var ErrNoSurface = errors.New("engine: surface not created")

// Engine owns the scene graph root and the frame pipeline of one surface.
type Engine struct {
	cfg   core.Configuration
	app   core.Application
	log   logrus.FieldLogger
	graph *action.Graph
	root  *scene.Node

	mutex  sync.Mutex
	frame  *render.Frame
	width  int
	height int
}

// New creates an engine for app. A nil log uses the standard logger.
func New(cfg core.Configuration, app core.Application, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if app == nil {
		app = core.ApplicationFuncs{}
	}
	g := action.NewGraph()
	return &Engine{
		cfg:   cfg,
		app:   app,
		log:   log,
		graph: g,
		root:  scene.NewNode(g, "root"),
	}
}

// Graph returns the notifier graph every scene object must be created in.
func (e *Engine) Graph() *action.Graph { return e.graph }

// Root returns the root of the scene graph.
func (e *Engine) Root() *scene.Node { return e.root }

// Size returns the current surface size.
func (e *Engine) Size() (width, height int) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.width, e.height
}

// OnSurfaceCreated sets up the frame pipeline and lets the application
// populate the scene. Calling it again after the surface was lost keeps the
// scene; GPU resources are recreated on next use.
func (e *Engine) OnSurfaceCreated(width, height int) {
	e.mutex.Lock()
	first := e.frame == nil
	if first {
		e.frame = render.NewFrame(e.root, e.app, e.cfg, nil, e.log)
	}
	e.width, e.height = width, height
	e.mutex.Unlock()

	e.log.WithFields(logrus.Fields{"width": width, "height": height}).Info("surface created")
	if first {
		e.app.OnInitialized(e.root, width, height)
	}
}

// OnSurfaceChanged records the new surface size and notifies the application.
func (e *Engine) OnSurfaceChanged(width, height int) {
	e.mutex.Lock()
	e.width, e.height = width, height
	e.mutex.Unlock()

	e.log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("surface changed")
	e.app.OnSurfaceChanged(width, height)
}

// OnSurfaceLost releases the GPU resources of the scene. Must be called on
// the GL goroutine while the context is still current.
func (e *Engine) OnSurfaceLost(ctx gfx.Context) {
	if f := e.currentFrame(); f != nil {
		f.Release(ctx)
	}
}

func (e *Engine) currentFrame() *render.Frame {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.frame
}

// DrawFrame runs the update and render phases of one frame synchronously
// on the calling goroutine, which must own ctx.
func (e *Engine) DrawFrame(ctx gfx.Context) error {
	f := e.currentFrame()
	if f == nil {
		return ErrNoSurface
	}
	f.Update()
	f.Render(ctx)
	return nil
}

// Run pipelines frames until ctx is done: the update phase runs on its own
// goroutine, paced by the configured updates per second, while the calling
// goroutine renders, paced by frames per second, and calls present after
// every rendered frame. Each present shows exactly one update's tasks, in
// update order. At most Renderer.MaxFramesInFlight updates run ahead of
// rendering. The calling goroutine must own gfxCtx.
func (e *Engine) Run(ctx context.Context, gfxCtx gfx.Context, present func()) error {
	f := e.currentFrame()
	if f == nil {
		return ErrNoSurface
	}

	inFlight := e.cfg.Renderer.MaxFramesInFlight
	if inFlight < 1 {
		inFlight = 1
	}
	tm := core.NewTime(e.cfg.Time)
	defer tm.Stop()

	// a slot is taken by every update and given back once that frame rendered
	slots := make(chan struct{}, inFlight)
	ready := make(chan struct{}, inFlight)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(ready)
		for {
			select {
			case <-ctx.Done():
				return
			case <-tm.UpdateTicker().C:
			}
			select {
			case <-ctx.Done():
				return
			case slots <- struct{}{}:
			}
			f.Update()
			ready <- struct{}{}
		}
	}()
	defer wg.Wait()

	log := e.log.WithField("frames_in_flight", inFlight)
	log.Info("render loop started")
	var frames int
	for {
		if err := ctx.Err(); err != nil {
			log.WithField("frames", frames).Info("render loop stopped")
			return err
		}
		select {
		case <-ctx.Done():
			continue
		case _, ok := <-ready:
			if !ok {
				continue
			}
		}
		f.RenderNext(gfxCtx)
		if present != nil {
			present()
		}
		frames++
		<-slots

		select {
		case <-ctx.Done():
		case <-tm.FpsTicker().C:
		}
	}
}
