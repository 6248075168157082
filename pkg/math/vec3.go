// Package math provides the transform math used by the renderer: column-major
// float32 matrices and vectors with angles expressed in degrees.
package math

import "github.com/go-gl/mathgl/mgl32"

// Vec3 is a 3D vector.
type Vec3 = mgl32.Vec3

// Vec4 is a 4-component vector.
type Vec4 = mgl32.Vec4

// Zero3 is the zero vector.
var Zero3 = Vec3{0, 0, 0}

// One3 has every component set to 1.
var One3 = Vec3{1, 1, 1}
