// Command koru runs the engine loop inside an SDL window. Rendering goes to a
// recording backend until a GL binding of gfx.Context exists.
package main

import (
	"context"
	"flag"
	"runtime"

	"github.com/gobuffalo/packr"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/engine"
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/gfx/gfxtest"
	"github.com/devblok/koru/model"
	"github.com/devblok/koru/render"
	"github.com/devblok/koru/scene"
	"github.com/devblok/koru/utility/kar"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile     = flag.String("env", "", "Load configuration from the given .env file")
	archiveFile = flag.String("archive", "", "Load resources from a kar archive instead of the embedded ones")
	modelName   = flag.String("model", "cube.dae", "Model to load into the scene")
)

// boxSource serves embedded resources by name
type boxSource struct {
	box packr.Box
}

func (b boxSource) ReadAll(name string) ([]byte, error) {
	return b.box.Find(name)
}

func resources() (model.Source, func(), error) {
	if *archiveFile == "" {
		return boxSource{packr.NewBox("./resources")}, func() {}, nil
	}
	ar, err := kar.OpenFile(*archiveFile)
	if err != nil {
		return nil, nil, err
	}
	return ar, func() { ar.Close() }, nil
}

// demo spins a model in front of the camera. Frames are sent to a recording
// backend, so the window hosts the loop and its events but stays blank.
type demo struct {
	engine *engine.Engine
	obj    *model.Object
	camera *scene.Camera
}

func (d *demo) OnInitialized(root *scene.Node, width, height int) {
	g := d.engine.Graph()

	d.camera = scene.NewCamera(g)
	d.camera.LookAt(glm.Vec3{0, 2, 6}, glm.Vec3{}, glm.Vec3{0, 1, 0})
	d.camera.SetAspect(float32(width) / float32(height))

	settings := scene.NewRenderSettings(g)
	settings.SetClear(true, glm.Vec4{0.1, 0.1, 0.15, 1})

	rn := scene.NewRenderNode(g, "main", render.BasicRenderer{})
	rn.SetCamera(d.camera)
	rn.SetSettings(settings)
	rn.SetViewFrustumCulling(true)
	root.AddChild(rn)

	geo := scene.NewGeometry(g, d.obj.Name, d.obj.Mesh(g))
	var angle float32
	geo.AddController(scene.ControllerFunc(func(n *scene.Node, dt float32) bool {
		angle += dt
		n.SetTransform(glm.HomogRotate3DY(angle))
		return true
	}))
	rn.AddChild(geo)
}

func (d *demo) OnSurfaceChanged(width, height int) {
	if height > 0 {
		d.camera.SetAspect(float32(width) / float32(height))
	}
}

func (d *demo) OnUpdate(dt float32) {}

func newWindow(cfg core.Configuration) (*sdl.Window, error) {
	return sdl.CreateWindow("Koru3D",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Renderer.ScreenWidth),
		int32(cfg.Renderer.ScreenHeight),
		sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE)
}

func main() {
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := core.LoadConfiguration(files...)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal(err)
	}

	src, closeSource, err := resources()
	if err != nil {
		logger.Fatal(err)
	}
	defer closeSource()
	obj, err := model.Load(src, *modelName)
	if err != nil {
		logger.Fatal(err)
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		logger.Fatal(err)
	}
	defer sdl.Quit()

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	window, err := newWindow(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	defer window.Destroy()

	glContext, err := window.GLCreateContext()
	if err != nil {
		logger.Fatal(err)
	}
	defer sdl.GLDeleteContext(glContext)

	// no GL binding implements gfx.Context yet, frames are only recorded
	var backend gfx.Context = gfxtest.NewRecorder()
	logger.Warn("no GL backend, rendering to a recorder; the window stays blank")

	d := &demo{obj: obj}
	d.engine = engine.New(cfg, d, logger)
	w, h := window.GetSize()
	d.engine.OnSurfaceCreated(int(w), int(h))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	present := func() {
		window.GLSwap()
		if rec, ok := backend.(*gfxtest.Recorder); ok {
			rec.Reset()
		}
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				cancel()
			case *sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
					d.engine.OnSurfaceChanged(int(e.Data1), int(e.Data2))
				}
			}
		}
	}

	if err := d.engine.Run(ctx, backend, present); err != nil && err != context.Canceled {
		logger.Error(err)
	}
	d.engine.OnSurfaceLost(backend)
	logger.Info("Application shutting down")
}
