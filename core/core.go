// Package core holds what the engine shares with its host: configuration,
// time services and the Application contract.
package core

import "github.com/devblok/koru/scene"

// Application is implemented by the host application and driven by the engine.
type Application interface {
	// OnInitialized is called once the surface exists, with the root
	// of the scene graph to populate and the surface size
	OnInitialized(root *scene.Node, width, height int)

	// OnSurfaceChanged is called when the surface is resized
	OnSurfaceChanged(width, height int)

	// OnUpdate is called once per update phase, before the scene
	// graph is updated. dt is in seconds
	OnUpdate(dt float32)
}

// ApplicationFuncs implements Application with optional callbacks.
// Nil callbacks do nothing.
type ApplicationFuncs struct {
	Initialized    func(root *scene.Node, width, height int)
	SurfaceChanged func(width, height int)
	Update         func(dt float32)
}

// OnInitialized implements Application
func (a ApplicationFuncs) OnInitialized(root *scene.Node, width, height int) {
	if a.Initialized != nil {
		a.Initialized(root, width, height)
	}
}

// OnSurfaceChanged implements Application
func (a ApplicationFuncs) OnSurfaceChanged(width, height int) {
	if a.SurfaceChanged != nil {
		a.SurfaceChanged(width, height)
	}
}

// OnUpdate implements Application
func (a ApplicationFuncs) OnUpdate(dt float32) {
	if a.Update != nil {
		a.Update(dt)
	}
}
