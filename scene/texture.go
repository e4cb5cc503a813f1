package scene

import (
	"bytes"
	"image"
	"image/draw"
	"sync"

	// registered texture formats
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/sirupsen/logrus"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
)

// TextureLoad is raised on the GL thread when the texture image must be (re)loaded.
const TextureLoad action.ID = "texture.load"

// TextureSource provides encoded image files by name. A kar.Archive is one.
type TextureSource interface {
	ReadAll(name string) ([]byte, error)
}

// Texture is an image loaded from a TextureSource on first use.
type Texture struct {
	notifier action.Notifier
	load     *action.Action
	log      logrus.FieldLogger

	source TextureSource
	name   string

	mutex  sync.RWMutex
	handle uint32
	width  int
	height int
	err    error
}

// NewTexture creates a texture that loads name from source on the GL thread.
func NewTexture(g *action.Graph, source TextureSource, name string, log logrus.FieldLogger) *Texture {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Texture{
		source: source,
		name:   name,
		log:    log.WithField("texture", name),
	}
	t.notifier = g.NewNotifier(t)
	t.load = action.New(t.notifier, TextureLoad, action.GL)
	t.load.Raise()
	return t
}

// Notifier returns the texture's notifier.
func (t *Texture) Notifier() action.Notifier { return t.notifier }

// Name returns the source name of the image.
func (t *Texture) Name() string { return t.name }

// Handle returns the backend texture, zero until loaded.
func (t *Texture) Handle() uint32 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.handle
}

// Size returns the loaded image size.
func (t *Texture) Size() (width, height int) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.width, t.height
}

// Err returns the error of the last load attempt.
func (t *Texture) Err() error {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.err
}

// Reload marks the texture for loading again.
func (t *Texture) Reload() {
	t.load.Raise()
}

// HandleAction implements action.Handler
func (t *Texture) HandleAction(*action.Action) bool {
	return false
}

// HandleGLAction implements action.Handler. A failed load is logged and
// consumed, the texture stays unloaded until Reload.
func (t *Texture) HandleGLAction(ctx gfx.Context, a *action.Action) bool {
	if a != t.load {
		return false
	}

	img, err := t.decode()

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.err = err
	if err != nil {
		t.log.WithError(err).Error("texture load failed")
		return true
	}

	if t.handle == 0 {
		t.handle = ctx.TextureUnits().Create()
	}
	bounds := img.Bounds()
	t.width, t.height = bounds.Dx(), bounds.Dy()
	ctx.TextureUnits().Upload(t.handle, t.width, t.height, Pixels(img))
	return true
}

func (t *Texture) decode() (image.Image, error) {
	data, err := t.source.ReadAll(t.name)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Release deletes the backend texture and marks it for loading again.
func (t *Texture) Release(ctx gfx.Context) {
	t.mutex.Lock()
	if t.handle != 0 {
		ctx.TextureUnits().Delete(t.handle)
		t.handle = 0
	}
	t.mutex.Unlock()
	t.load.Raise()
}

// Pixels draws img onto an RGBA canvas and returns its tightly packed pixels.
func Pixels(img image.Image) []uint8 {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*rgba.Rect.Dx() && rgba.Rect.Min == (image.Point{}) {
		return rgba.Pix
	}
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	return canvas.Pix
}
