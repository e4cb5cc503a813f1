package scene

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
)

// RenderSettingsChanged is raised on the GL thread when render state changed.
const RenderSettingsChanged action.ID = "render.settings"

// RenderSettings is the render state a render node draws with.
type RenderSettings struct {
	notifier action.Notifier
	changed  *action.Action

	mutex      sync.RWMutex
	state      gfx.State
	clear      bool
	clearColor glm.Vec4
}

// NewRenderSettings creates settings with depth testing and face culling
// enabled, clearing to opaque black. They are applied on first use.
func NewRenderSettings(g *action.Graph) *RenderSettings {
	s := &RenderSettings{
		state:      gfx.State{DepthTest: true, CullFace: true},
		clear:      true,
		clearColor: glm.Vec4{0, 0, 0, 1},
	}
	s.notifier = g.NewNotifier(s)
	s.changed = action.New(s.notifier, RenderSettingsChanged, action.GL)
	s.changed.Raise()
	return s
}

// Notifier returns the settings' notifier.
func (s *RenderSettings) Notifier() action.Notifier { return s.notifier }

// SetState replaces the render state.
func (s *RenderSettings) SetState(state gfx.State) {
	s.mutex.Lock()
	s.state = state
	s.mutex.Unlock()
	s.changed.Raise()
}

// State returns the render state.
func (s *RenderSettings) State() gfx.State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// SetClear sets whether and with which color the framebuffer is cleared
// before the render node draws.
func (s *RenderSettings) SetClear(enabled bool, color glm.Vec4) {
	s.mutex.Lock()
	s.clear = enabled
	s.clearColor = color
	s.mutex.Unlock()
}

// Clear clears the bound framebuffer when enabled.
func (s *RenderSettings) Clear(ctx gfx.Context) {
	s.mutex.RLock()
	enabled, color, depth := s.clear, s.clearColor, s.state.DepthTest
	s.mutex.RUnlock()
	if enabled {
		ctx.Framebuffers().Clear(color, depth)
	}
}

// HandleAction implements action.Handler
func (s *RenderSettings) HandleAction(*action.Action) bool {
	return false
}

// HandleGLAction implements action.Handler
func (s *RenderSettings) HandleGLAction(ctx gfx.Context, a *action.Action) bool {
	if a != s.changed {
		return false
	}
	ctx.RenderState().Apply(s.State())
	return true
}
