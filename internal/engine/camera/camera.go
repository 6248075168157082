// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/Faultbox/pbrview/pkg/math"
)

// Defaults for a freshly constructed PerspectiveCamera.
var (
	DefaultPosition = math.Vec3{0, 0, -5}
	DefaultRotation = math.Vec3{0, 1, 0}
)

const (
	DefaultFOV    float32 = 45
	DefaultNear   float32 = 0.1
	DefaultFar    float32 = 100
	DefaultAspect float32 = 4.0 / 3.0
)

// PerspectiveCamera owns the camera parameters and keeps its view and
// projection matrices in sync with them. Every setter recomputes the
// dependent matrix before returning.
//
// Callers must keep 0 < near < far and aspect > 0; the camera does not
// validate them.
//
// A PerspectiveCamera is not safe for concurrent use. It belongs to the
// render thread; other goroutines deliver changes through scene.Mailbox.
type PerspectiveCamera struct {
	position math.Vec3
	rotation math.Vec3 // Euler degrees, applied X then Y then Z
	fov      float32   // Vertical, degrees
	near     float32
	far      float32
	aspect   float32

	view       math.Mat4
	projection math.Mat4
}

// Option configures a camera at construction.
type Option func(*PerspectiveCamera)

// WithPosition overrides the default position.
func WithPosition(v math.Vec3) Option {
	return func(c *PerspectiveCamera) { c.position = v }
}

// WithRotation overrides the default rotation.
func WithRotation(v math.Vec3) Option {
	return func(c *PerspectiveCamera) { c.rotation = v }
}

// WithFOV overrides the default field of view (degrees).
func WithFOV(fov float32) Option {
	return func(c *PerspectiveCamera) { c.fov = fov }
}

// WithClip overrides the default near and far planes.
func WithClip(near, far float32) Option {
	return func(c *PerspectiveCamera) {
		c.near = near
		c.far = far
	}
}

// WithAspect overrides the default aspect ratio.
func WithAspect(aspect float32) Option {
	return func(c *PerspectiveCamera) { c.aspect = aspect }
}

// New creates a camera with default parameters, then applies opts.
func New(opts ...Option) *PerspectiveCamera {
	c := &PerspectiveCamera{
		position: DefaultPosition,
		rotation: DefaultRotation,
		fov:      DefaultFOV,
		near:     DefaultNear,
		far:      DefaultFar,
		aspect:   DefaultAspect,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.updateView()
	c.updateProjection()
	return c
}

// Position returns the camera position in world space.
func (c *PerspectiveCamera) Position() math.Vec3 { return c.position }

// Rotation returns the camera orientation as Euler degrees.
func (c *PerspectiveCamera) Rotation() math.Vec3 { return c.rotation }

// FOV returns the vertical field of view in degrees.
func (c *PerspectiveCamera) FOV() float32 { return c.fov }

// Near returns the near clip distance.
func (c *PerspectiveCamera) Near() float32 { return c.near }

// Far returns the far clip distance.
func (c *PerspectiveCamera) Far() float32 { return c.far }

// Aspect returns the width/height ratio.
func (c *PerspectiveCamera) Aspect() float32 { return c.aspect }

// ViewMatrix returns the cached world-to-eye transform.
func (c *PerspectiveCamera) ViewMatrix() math.Mat4 { return c.view }

// ProjectionMatrix returns the cached eye-to-clip transform.
func (c *PerspectiveCamera) ProjectionMatrix() math.Mat4 { return c.projection }

// SetPosition moves the camera and recomputes the view matrix.
func (c *PerspectiveCamera) SetPosition(v math.Vec3) {
	c.position = v
	c.updateView()
}

// SetRotation reorients the camera and recomputes the view matrix.
func (c *PerspectiveCamera) SetRotation(v math.Vec3) {
	c.rotation = v
	c.updateView()
}

// SetFOV sets the vertical field of view (degrees) and recomputes the projection.
func (c *PerspectiveCamera) SetFOV(fov float32) {
	c.fov = fov
	c.updateProjection()
}

// SetNear sets the near plane and recomputes the projection.
func (c *PerspectiveCamera) SetNear(near float32) {
	c.near = near
	c.updateProjection()
}

// SetFar sets the far plane and recomputes the projection.
func (c *PerspectiveCamera) SetFar(far float32) {
	c.far = far
	c.updateProjection()
}

// SetAspect sets the aspect ratio and recomputes the projection.
func (c *PerspectiveCamera) SetAspect(aspect float32) {
	c.aspect = aspect
	c.updateProjection()
}

func (c *PerspectiveCamera) updateView() {
	c.view = math.ViewMatrix(c.position, c.rotation)
}

func (c *PerspectiveCamera) updateProjection() {
	c.projection = math.Projection(c.fov, c.near, c.far, c.aspect)
}
