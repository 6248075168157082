// Package scene holds the state the renderer composes each frame: the animated
// object, the environment it is lit by, and the settings snapshots that
// reach the render thread from other goroutines.
package scene

import (
	"github.com/Faultbox/pbrview/pkg/math"
)

// Per-axis autorotation rates in degrees per second, before Speed is applied.
var autorotateRates = math.Vec3{10, 7, 3}

// Object is the single mesh instance in the scene.
type Object struct {
	Position math.Vec3
	Rotation math.Vec3 // Euler degrees
	Scale    math.Vec3

	Autorotate bool
	Speed      float32
}

// NewObject returns an object at the origin with unit scale, spinning at speed 5.
func NewObject() *Object {
	return &Object{
		Scale:      math.One3,
		Autorotate: true,
		Speed:      5,
	}
}

// Update advances the rotation by dt seconds when autorotation is on.
//
// Each axis that reaches 360 is wrapped with a single subtraction, so the
// result stays in [0,360) only while one frame's increment is at most 360.
func (o *Object) Update(dt float32) {
	if !o.Autorotate {
		return
	}

	step := autorotateRates.Mul(o.Speed * dt)
	for i := range o.Rotation {
		o.Rotation[i] += step[i]
		if o.Rotation[i] >= 360 {
			o.Rotation[i] -= 360
		}
	}
}

// ResetRotation zeroes the rotation.
func (o *Object) ResetRotation() {
	o.Rotation = math.Zero3
}

// ModelMatrix returns translate * rotateX * rotateY * rotateZ * scale.
// It is recomputed on every call.
func (o *Object) ModelMatrix() math.Mat4 {
	return math.Translate(o.Position).
		Mul4(math.Rotate(o.Rotation)).
		Mul4(math.Scale(o.Scale))
}
