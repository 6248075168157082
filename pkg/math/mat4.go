package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Pi as float32.
const Pi = math32.Pi

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 = mgl32.Mat4

// Mat3 is a 3x3 matrix in column-major order.
type Mat3 = mgl32.Mat3

// Identity returns an identity matrix.
func Identity() Mat4 {
	return mgl32.Ident4()
}

// Translate returns a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		v[0], v[1], v[2], 1,
	}
}

// Scale returns a scale matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v[0], 0, 0, 0,
		0, v[1], 0, 0,
		0, 0, v[2], 0,
		0, 0, 0, 1,
	}
}

// ScaleUniform returns a matrix scaling all three axes by s.
func ScaleUniform(s float32) Mat4 {
	return Scale(Vec3{s, s, s})
}

// RotateX returns a rotation matrix around the X axis.
// angle is in degrees.
func RotateX(degrees float32) Mat4 {
	r := DegToRad(degrees)
	c, s := math32.Cos(r), math32.Sin(r)

	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation matrix around the Y axis.
// angle is in degrees.
func RotateY(degrees float32) Mat4 {
	r := DegToRad(degrees)
	c, s := math32.Cos(r), math32.Sin(r)

	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns a rotation matrix around the Z axis.
// angle is in degrees.
func RotateZ(degrees float32) Mat4 {
	r := DegToRad(degrees)
	c, s := math32.Cos(r), math32.Sin(r)

	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Rotate composes per-axis rotations as RotateX * RotateY * RotateZ.
// The order is fixed; callers that need another order must compose it themselves.
func Rotate(eulers Vec3) Mat4 {
	return RotateX(eulers[0]).Mul4(RotateY(eulers[1])).Mul4(RotateZ(eulers[2]))
}

// ViewMatrix builds the camera's world transform the same way an object's is
// built (translate then rotate) and returns its inverse.
func ViewMatrix(translation, rotation Vec3) Mat4 {
	return Translate(translation).Mul4(Rotate(rotation)).Inv()
}

// Projection returns a left-handed perspective projection matrix. It maps
// z=near to NDC depth 0 and z=far to 1. fov is the vertical field of view in
// degrees, aspect is width/height.
//
// OpenGL 4.1 clips depth to [-1,1], so geometry between roughly near/2 and
// near is kept and drawn in front of the near plane.
//
// Requires 0 < near < far and aspect > 0; other values yield a degenerate matrix.
func Projection(fov, near, far, aspect float32) Mat4 {
	y := 1 / math32.Tan(DegToRad(fov)*0.5)
	x := y / aspect
	z := far / (far - near)

	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 1,
		0, 0, z * -near, 0,
	}
}

// NormalMatrix returns the inverse-transpose of the model matrix's upper-left
// 3x3 block. A singular block yields the zero matrix.
func NormalMatrix(model Mat4) Mat3 {
	return model.Mat3().Inv().Transpose()
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1).
func TransformPoint(m Mat4, p Vec3) Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if w := v[3]; w != 0 && w != 1 {
		return Vec3{v[0] / w, v[1] / w, v[2] / w}
	}
	return v.Vec3()
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float32) float32 {
	return degrees * (math32.Pi / 180)
}

// ApproxEqual reports whether every element of a and b differs by at most eps.
func ApproxEqual(a, b Mat4, eps float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
