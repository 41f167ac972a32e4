package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minPitch    = -1.5
	maxPitch    = 1.5
	minDistance = 5
	maxDistance = 500
	nearPlane   = 0.1
	farPlane    = 2000
)

// Camera orbits a target point. Angles are in radians.
type Camera struct {
	Target   mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Distance float32
	FOV      float32
}

func NewCamera(target mgl32.Vec3, distance float32) *Camera {
	return &Camera{Target: target, Yaw: 0.6, Pitch: 0.45, Distance: distance, FOV: 45}
}

// Eye returns the camera position.
func (c *Camera) Eye() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return c.Target.Add(mgl32.Vec3{
		c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
		c.Distance * float32(math.Sin(float64(c.Pitch))),
		c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
	})
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, nearPlane, farPlane)
}

// Orbit rotates around the target, clamping pitch short of the poles.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	c.Yaw += dYaw
	c.Pitch = mgl32.Clamp(c.Pitch+dPitch, minPitch, maxPitch)
}

// Zoom scales the orbit distance by factor.
func (c *Camera) Zoom(factor float32) {
	c.Distance = mgl32.Clamp(c.Distance*factor, minDistance, maxDistance)
}

// Projector maps world points to a w×h pixel grid for one frame.
type Projector struct {
	mvp    mgl32.Mat4
	w, h   int
	focal  float32
	camera *Camera
}

func (c *Camera) Projector(w, h int) Projector {
	aspect := float32(w) / float32(h)
	return Projector{
		mvp:    c.Projection(aspect).Mul4(c.View()),
		w:      w,
		h:      h,
		focal:  float32(h) / 2 / float32(math.Tan(float64(mgl32.DegToRad(c.FOV))/2)),
		camera: c,
	}
}

// Project returns pixel coordinates and view depth. ok is false for points
// behind the near plane or outside the grid.
func (p Projector) Project(v mgl32.Vec3) (x, y int, depth float32, ok bool) {
	clip := p.mvp.Mul4x1(v.Vec4(1))
	w := clip.W()
	if w <= nearPlane {
		return 0, 0, 0, false
	}
	ndcX, ndcY := clip.X()/w, clip.Y()/w
	x = int((ndcX + 1) / 2 * float32(p.w))
	y = int((1 - ndcY) / 2 * float32(p.h))
	return x, y, w, x >= 0 && x < p.w && y >= 0 && y < p.h
}

// ScreenRadius returns the projected radius of a sphere of world radius r at
// view depth depth.
func (p Projector) ScreenRadius(r, depth float32) int {
	if depth <= 0 {
		return 0
	}
	return int(r * p.focal / depth)
}
