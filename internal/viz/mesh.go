package viz

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Scene is what a frame draws: the cloth edges over the sphere outline.
type Scene struct {
	Edges  [][2]uint32
	Sphere cloth.Sphere
}

func NewScene(topo *cloth.Topology, sphere cloth.Sphere) *Scene {
	return &Scene{Edges: topo.Edges(), Sphere: sphere}
}

// Draw renders positions onto c through cam. Edges with an endpoint behind
// the camera are dropped.
func (s *Scene) Draw(c *Canvas, cam *Camera, positions []mgl32.Vec3) {
	w, h := c.Dots()
	p := cam.Projector(w, h)

	if s.Sphere.Radius > 0 {
		if x, y, depth, _ := p.Project(s.Sphere.Center); depth > 0 {
			c.DrawCircle(x, y, p.ScreenRadius(s.Sphere.Radius, depth))
		}
	}

	for _, e := range s.Edges {
		if int(e[0]) >= len(positions) || int(e[1]) >= len(positions) {
			continue
		}
		x0, y0, d0, _ := p.Project(positions[e[0]])
		x1, y1, d1, _ := p.Project(positions[e[1]])
		if d0 <= 0 || d1 <= 0 {
			continue
		}
		c.DrawLine(x0, y0, x1, y1)
	}
}

// Bounds returns the axis-aligned box around positions.
func Bounds(positions []mgl32.Vec3) (lo, hi mgl32.Vec3) {
	if len(positions) == 0 {
		return
	}
	lo, hi = positions[0], positions[0]
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	return lo, hi
}

// FrameScene returns a camera that keeps the cloth and the sphere in view.
func FrameScene(positions []mgl32.Vec3, sphere cloth.Sphere) *Camera {
	lo, hi := Bounds(positions)
	r := mgl32.Vec3{sphere.Radius, sphere.Radius, sphere.Radius}
	lo = mgl32.Vec3{min(lo[0], sphere.Center[0]-r[0]), min(lo[1], sphere.Center[1]-r[1]), min(lo[2], sphere.Center[2]-r[2])}
	hi = mgl32.Vec3{max(hi[0], sphere.Center[0]+r[0]), max(hi[1], sphere.Center[1]+r[1]), max(hi[2], sphere.Center[2]+r[2])}
	center := lo.Add(hi).Mul(0.5)
	extent := hi.Sub(lo).Len()
	return NewCamera(center, mgl32.Clamp(extent*1.8, minDistance, maxDistance))
}
