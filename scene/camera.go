package scene

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
)

// CameraUpdated is raised on the main thread when view or projection changed.
const CameraUpdated action.ID = "camera.updated"

// Camera is a perspective look-at camera. Setters only mark the camera
// updated; matrices and planes are recomputed when CameraUpdated is handled.
type Camera struct {
	notifier action.Notifier
	updated  *action.Action

	mutex sync.RWMutex

	fovy   float32
	aspect float32
	near   float32
	far    float32

	eye    glm.Vec3
	center glm.Vec3
	up     glm.Vec3

	view           glm.Mat4
	projection     glm.Mat4
	viewProjection glm.Mat4
	frustum        Frustum
}

// NewCamera creates a camera at the origin looking down -Z with a 45 degree
// field of view, aspect 1 and clip planes at 0.1 and 100.
func NewCamera(g *action.Graph) *Camera {
	c := &Camera{
		fovy:   glm.DegToRad(45),
		aspect: 1,
		near:   0.1,
		far:    100,
		center: glm.Vec3{0, 0, -1},
		up:     glm.Vec3{0, 1, 0},
	}
	c.notifier = g.NewNotifier(c)
	c.updated = action.New(c.notifier, CameraUpdated, action.Main)
	c.recompute()
	return c
}

// Notifier returns the camera's notifier.
func (c *Camera) Notifier() action.Notifier { return c.notifier }

// SetPerspective sets the projection, fovy is in radians.
func (c *Camera) SetPerspective(fovy, aspect, near, far float32) {
	c.mutex.Lock()
	c.fovy, c.aspect, c.near, c.far = fovy, aspect, near, far
	c.mutex.Unlock()
	c.updated.Raise()
}

// SetAspect changes only the aspect ratio, typically on surface resize.
func (c *Camera) SetAspect(aspect float32) {
	c.mutex.Lock()
	c.aspect = aspect
	c.mutex.Unlock()
	c.updated.Raise()
}

// LookAt places the camera at eye looking towards center.
func (c *Camera) LookAt(eye, center, up glm.Vec3) {
	c.mutex.Lock()
	c.eye, c.center, c.up = eye, center, up
	c.mutex.Unlock()
	c.updated.Raise()
}

// Position returns the eye position.
func (c *Camera) Position() glm.Vec3 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.eye
}

// View returns the view matrix.
func (c *Camera) View() glm.Mat4 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.view
}

// Projection returns the projection matrix.
func (c *Camera) Projection() glm.Mat4 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.projection
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() glm.Mat4 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.viewProjection
}

// Frustum returns the world-space frustum planes.
func (c *Camera) Frustum() Frustum {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.frustum
}

func (c *Camera) recompute() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.view = glm.LookAtV(c.eye, c.center, c.up)
	c.projection = glm.Perspective(c.fovy, c.aspect, c.near, c.far)
	c.viewProjection = c.projection.Mul4(c.view)
	c.frustum = FrustumFromMatrix(c.viewProjection)
}

// HandleAction implements action.Handler
func (c *Camera) HandleAction(a *action.Action) bool {
	if a != c.updated {
		return false
	}
	c.recompute()
	return true
}

// HandleGLAction implements action.Handler
func (c *Camera) HandleGLAction(gfx.Context, *action.Action) bool {
	return false
}
