package scene

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// IsPointVisible reports whether p is on the inner side of all six planes
// of the camera frustum.
func IsPointVisible(p glm.Vec3, camera *Camera) bool {
	for _, plane := range camera.Frustum() {
		if plane.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// IsBoxVisible reports whether b intersects the camera frustum. Partial
// overlap counts as visible.
func IsBoxVisible(b Box, camera *Camera) bool {
	middle := b.Middle()
	width, height, depth := b.Width(), b.Height(), b.Depth()

	for _, plane := range camera.Frustum() {
		radius := (abs(width.Dot(plane.Normal)) +
			abs(height.Dot(plane.Normal)) +
			abs(depth.Dot(plane.Normal))) / 2
		if plane.Distance(middle) <= -radius {
			return false
		}
	}
	return true
}

// IsGeometryVisible reports whether the world bounds of geometry g intersect
// the camera frustum. Geometries without populated bounds are always visible.
func IsGeometryVisible(g *Node, camera *Camera) bool {
	bounds := g.WorldBounds()
	if bounds.IsEmpty() {
		return true
	}
	return IsBoxVisible(bounds, camera)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
