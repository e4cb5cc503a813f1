package model_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/model"
	"github.com/devblok/koru/scene"
)

// cubeAsset is the model shipped with the demo host.
const cubeAsset = "../cmd/koru/resources/cube.dae"

func cubeFile(t *testing.T) []byte {
	data, err := os.ReadFile(cubeAsset)
	require.NoError(t, err)
	return data
}

func TestImportCollada(t *testing.T) {
	obj, err := model.ImportCollada(cubeFile(t))
	require.NoError(t, err)

	assert.Equal(t, "Cube", obj.Name)
	// four corners per face, each with its face normal
	assert.Len(t, obj.Vertices, 24)
	assert.Len(t, obj.Indices, 36)
	assert.Equal(t, scene.NewBox(glm.Vec3{-1, -1, -1}, glm.Vec3{1, 1, 1}), obj.Bounds())

	first := obj.Vertices[obj.Indices[0]]
	assert.Equal(t, glm.Vec3{1, 1, -1}, first.Pos)
	assert.Equal(t, glm.Vec3{0, 0, -1}, first.Normal)
	for _, idx := range obj.Indices {
		assert.Less(t, int(idx), len(obj.Vertices))
	}
}

func TestObjectMesh(t *testing.T) {
	obj, err := model.ImportCollada(cubeFile(t))
	require.NoError(t, err)

	data := obj.Interleaved()
	require.Len(t, data, 24*model.VertexStride)
	assert.Equal(t, []float32{1, 1, -1, 0, 0, -1}, data[:model.VertexStride])

	m := obj.Mesh(action.NewGraph())
	assert.Equal(t, obj.Bounds(), m.Bounds())
	assert.Equal(t, model.VertexStride, m.Stride())
	assert.Equal(t, 36, m.Count())
	assert.True(t, m.Notifier().HasActions())
}

func TestImportColladaErrors(t *testing.T) {
	_, err := model.ImportCollada([]byte("<COLLADA><library_geometries/></COLLADA>"))
	assert.ErrorIs(t, err, model.ErrNoGeometry)

	_, err = model.ImportCollada([]byte("not xml at all <"))
	assert.Error(t, err)

	broken := strings.Replace(string(cubeFile(t)), "4 5 3 5 7 5</p>", "4 5 3 5 9 5</p>", 1)
	_, err = model.ImportCollada([]byte(broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cube-mesh")

	short := strings.Replace(string(cubeFile(t)), "4 5 3 5 7 5</p>", "4 5 3 5 7</p>", 1)
	_, err = model.ImportCollada([]byte(short))
	assert.Error(t, err)
}

type files map[string][]byte

func (f files) ReadAll(name string) ([]byte, error) {
	if data, ok := f[name]; ok {
		return data, nil
	}
	return nil, errors.New("not found")
}

func TestLoad(t *testing.T) {
	src := files{"cube.dae": cubeFile(t)}

	obj, err := model.Load(src, "cube.dae")
	require.NoError(t, err)
	assert.Len(t, obj.Indices, 36)

	_, err = model.Load(src, "sphere.dae")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sphere.dae")
}
