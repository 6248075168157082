package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/pbrview/pkg/math"
)

func TestNewObjectDefaults(t *testing.T) {
	o := NewObject()

	assert.Equal(t, math.Vec3{}, o.Position)
	assert.Equal(t, math.Vec3{}, o.Rotation)
	assert.Equal(t, math.Vec3{1, 1, 1}, o.Scale)
	assert.True(t, o.Autorotate)
	assert.Equal(t, float32(5), o.Speed)
	assert.Equal(t, math.Identity(), o.ModelMatrix())
}

func TestUpdateAdvancesRotation(t *testing.T) {
	o := NewObject()
	o.Speed = 1

	o.Update(0.5)

	assert.InDelta(t, 5, o.Rotation[0], 1e-5)
	assert.InDelta(t, 3.5, o.Rotation[1], 1e-5)
	assert.InDelta(t, 1.5, o.Rotation[2], 1e-5)
}

func TestUpdateWithoutAutorotate(t *testing.T) {
	o := NewObject()
	o.Autorotate = false
	o.Rotation = math.Vec3{12, 34, 56}

	o.Update(10)

	assert.Equal(t, math.Vec3{12, 34, 56}, o.Rotation)
}

func TestUpdateWrap(t *testing.T) {
	tests := []struct {
		name  string
		start math.Vec3
		speed float32
		dt    float32
		want  math.Vec3
	}{
		{"no wrap", math.Vec3{0, 0, 0}, 1, 1, math.Vec3{10, 7, 3}},
		{"x wraps", math.Vec3{355, 0, 0}, 1, 1, math.Vec3{5, 7, 3}},
		{"exactly 360", math.Vec3{350, 353, 357}, 1, 1, math.Vec3{0, 0, 0}},
		{"all wrap", math.Vec3{359, 359, 359}, 1, 1, math.Vec3{9, 6, 2}},
		// A single subtraction leaves huge steps above 360.
		{"oversized step", math.Vec3{0, 0, 0}, 100, 1, math.Vec3{640, 340, 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewObject()
			o.Rotation = tt.start
			o.Speed = tt.speed

			o.Update(tt.dt)

			for i := range tt.want {
				assert.InDeltaf(t, tt.want[i], o.Rotation[i], 1e-3, "axis %d", i)
			}
		})
	}
}

func TestUpdateStaysInRange(t *testing.T) {
	starts := []float32{0, 90, 180, 270, 359.9}
	dts := []float32{0, 0.016, 0.5, 1, 2}

	for _, start := range starts {
		for _, dt := range dts {
			o := NewObject()
			o.Rotation = math.Vec3{start, start, start}
			o.Update(dt)

			// Speed 5 and rate 10 give an increment of at most 100 degrees here.
			for i, v := range o.Rotation {
				if v < 0 || v >= 360 {
					t.Errorf("start %v dt %v: axis %d = %v, want [0,360)", start, dt, i, v)
				}
			}
		}
	}
}

func TestModelMatrix(t *testing.T) {
	o := NewObject()
	o.Position = math.Vec3{1, 2, 3}
	o.Rotation = math.Vec3{30, 45, 60}
	o.Scale = math.Vec3{2, 3, 4}

	want := math.Translate(o.Position).
		Mul4(math.RotateX(30)).
		Mul4(math.RotateY(45)).
		Mul4(math.RotateZ(60)).
		Mul4(math.Scale(o.Scale))

	assert.True(t, math.ApproxEqual(want, o.ModelMatrix(), 1e-5))

	// Not cached.
	o.Position = math.Vec3{}
	assert.Equal(t, float32(0), o.ModelMatrix()[12])
}

func TestResetRotation(t *testing.T) {
	o := NewObject()
	o.Update(1)
	o.ResetRotation()
	assert.Equal(t, math.Vec3{}, o.Rotation)
}
