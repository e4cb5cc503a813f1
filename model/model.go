// Package model imports model files into scene meshes.
package model

import (
	"fmt"
	"math"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/scene"
)

// VertexStride is the number of floats per vertex of an imported mesh:
// position followed by normal.
const VertexStride = 6

// Vertex is a model vertex
type Vertex struct {
	Pos    glm.Vec3
	Normal glm.Vec3
}

// Object is an imported model held in memory
type Object struct {
	Name     string
	Vertices []Vertex
	Indices  []uint16
}

// Bounds returns the box enclosing all vertex positions
func (o *Object) Bounds() scene.Box {
	b := scene.EmptyBox()
	for _, v := range o.Vertices {
		b = b.Extend(v.Pos)
	}
	return b
}

// Interleaved returns the vertex data laid out for a scene.Mesh
// with VertexStride floats per vertex
func (o *Object) Interleaved() []float32 {
	data := make([]float32, 0, len(o.Vertices)*VertexStride)
	for _, v := range o.Vertices {
		data = append(data, v.Pos[0], v.Pos[1], v.Pos[2], v.Normal[0], v.Normal[1], v.Normal[2])
	}
	return data
}

// Mesh creates a scene mesh holding the object's data
func (o *Object) Mesh(g *action.Graph) *scene.Mesh {
	m := scene.NewMesh(g)
	m.SetData(o.Interleaved(), VertexStride, o.Indices)
	return m
}

// Source provides model files by name. A kar.Archive is one.
type Source interface {
	ReadAll(name string) ([]byte, error)
}

// Load reads and imports the model file name from src
func Load(src Source, name string) (*Object, error) {
	data, err := src.ReadAll(name)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	obj, err := ImportCollada(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	return obj, nil
}

// indexer deduplicates vertices by their source indices
type indexer struct {
	seen     map[[2]int]uint16
	vertices []Vertex
	indices  []uint16
}

func (ix *indexer) add(key [2]int, v func() (Vertex, error)) error {
	if idx, ok := ix.seen[key]; ok {
		ix.indices = append(ix.indices, idx)
		return nil
	}
	if len(ix.vertices) > math.MaxUint16 {
		return fmt.Errorf("more than %d vertices", math.MaxUint16+1)
	}
	vertex, err := v()
	if err != nil {
		return err
	}
	idx := uint16(len(ix.vertices))
	ix.seen[key] = idx
	ix.vertices = append(ix.vertices, vertex)
	ix.indices = append(ix.indices, idx)
	return nil
}
