package model

import (
	"bytes"
	"errors"
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/utility/collada"
)

// ErrNoGeometry is returned for Collada documents without triangle geometry
var ErrNoGeometry = errors.New("no triangle geometry")

// ImportCollada reads given file and converts the first Collada geometry to
// engine's internal object. Corners sharing position and normal are merged.
func ImportCollada(fileContents []byte) (*Object, error) {
	doc, err := collada.Decode(bytes.NewReader(fileContents))
	if err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, ErrNoGeometry
	}

	geometry := &doc.Geometries[0]
	mesh := &geometry.Mesh
	ix := &indexer{seen: make(map[[2]int]uint16)}
	for i := range mesh.Triangles {
		if err := importTriangles(mesh, &mesh.Triangles[i], ix); err != nil {
			return nil, fmt.Errorf("geometry %s: %w", geometry.ID, err)
		}
	}
	if len(ix.indices) == 0 {
		return nil, ErrNoGeometry
	}

	return &Object{
		Name:     geometry.Name,
		Vertices: ix.vertices,
		Indices:  ix.indices,
	}, nil
}

func importTriangles(mesh *collada.Mesh, tris *collada.Triangles, ix *indexer) error {
	vertexInput, ok := tris.Input(collada.SemanticVertex)
	if !ok {
		return errors.New("triangles without vertex input")
	}
	positions, err := mesh.InputSource(vertexInput)
	if err != nil {
		return err
	}

	var normals *collada.Source
	normalInput, hasNormals := tris.Input(collada.SemanticNormal)
	if hasNormals {
		if normals, err = mesh.InputSource(normalInput); err != nil {
			return err
		}
	}

	if positions.Stride() < 3 || (normals != nil && normals.Stride() < 3) {
		return errors.New("positions and normals need three components")
	}

	stride := tris.Stride()
	if len(tris.Index)%(3*stride) != 0 {
		return fmt.Errorf("%d indices do not form triangles of stride %d", len(tris.Index), stride)
	}

	for corner := 0; corner < len(tris.Index); corner += stride {
		p := tris.Index[corner+int(vertexInput.Offset)]
		n := -1
		if hasNormals {
			n = tris.Index[corner+int(normalInput.Offset)]
		}

		err := ix.add([2]int{p, n}, func() (Vertex, error) {
			var v Vertex
			pos, err := positions.Element(p)
			if err != nil {
				return v, err
			}
			v.Pos = glm.Vec3{pos[0], pos[1], pos[2]}
			if normals != nil {
				normal, err := normals.Element(n)
				if err != nil {
					return v, err
				}
				v.Normal = glm.Vec3{normal[0], normal[1], normal[2]}
			}
			return v, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
