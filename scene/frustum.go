package scene

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Plane is a normalized plane, points p with Normal·p + D >= 0 are in front.
type Plane struct {
	Normal glm.Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(v glm.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

func planeFromRow(v glm.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// Frustum planes, in Frustum index order
const (
	Near = iota
	Far
	Left
	Right
	Top
	Bottom
)

// Frustum holds six world-space planes facing inward.
type Frustum [6]Plane

// FrustumFromMatrix extracts the planes of a view-projection matrix.
func FrustumFromMatrix(vp glm.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	var f Frustum
	f[Near] = planeFromRow(r3.Add(r2))
	f[Far] = planeFromRow(r3.Sub(r2))
	f[Left] = planeFromRow(r3.Add(r0))
	f[Right] = planeFromRow(r3.Sub(r0))
	f[Top] = planeFromRow(r3.Sub(r1))
	f[Bottom] = planeFromRow(r3.Add(r1))
	return f
}
