package scene

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box. The zero value is not empty,
// use EmptyBox for a box that has never been populated.
type Box struct {
	Min glm.Vec3
	Max glm.Vec3
}

// EmptyBox returns a box containing nothing.
func EmptyBox() Box {
	return Box{
		Min: glm.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: glm.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// NewBox returns the smallest box containing points.
func NewBox(points ...glm.Vec3) Box {
	b := EmptyBox()
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// IsEmpty reports whether the box was never extended.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend returns the box grown to contain p.
func (b Box) Extend(p glm.Vec3) Box {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Middle returns the center point of the box.
func (b Box) Middle() glm.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Width returns the x extent as a vector.
func (b Box) Width() glm.Vec3 { return glm.Vec3{b.Max[0] - b.Min[0], 0, 0} }

// Height returns the y extent as a vector.
func (b Box) Height() glm.Vec3 { return glm.Vec3{0, b.Max[1] - b.Min[1], 0} }

// Depth returns the z extent as a vector.
func (b Box) Depth() glm.Vec3 { return glm.Vec3{0, 0, b.Max[2] - b.Min[2]} }

// Transform returns the axis-aligned box enclosing b transformed by m.
// An empty box stays empty.
func (b Box) Transform(m glm.Mat4) Box {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		corner := glm.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Extend(glm.TransformCoordinate(corner, m))
	}
	return out
}
