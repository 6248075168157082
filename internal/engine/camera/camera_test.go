package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/pbrview/pkg/math"
)

func TestNewDefaults(t *testing.T) {
	c := New()

	assert.Equal(t, math.Vec3{0, 0, -5}, c.Position())
	assert.Equal(t, math.Vec3{0, 1, 0}, c.Rotation())
	assert.Equal(t, float32(45), c.FOV())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
	assert.InDelta(t, 4.0/3.0, c.Aspect(), 1e-6)

	assert.Equal(t, math.ViewMatrix(c.Position(), c.Rotation()), c.ViewMatrix())
	assert.Equal(t, math.Projection(45, 0.1, 100, 4.0/3.0), c.ProjectionMatrix())
}

func TestNewWithOptions(t *testing.T) {
	c := New(
		WithPosition(math.Vec3{1, 2, 3}),
		WithRotation(math.Vec3{10, 0, 0}),
		WithFOV(60),
		WithClip(0.5, 50),
		WithAspect(2),
	)

	assert.Equal(t, math.ViewMatrix(math.Vec3{1, 2, 3}, math.Vec3{10, 0, 0}), c.ViewMatrix())
	assert.Equal(t, math.Projection(60, 0.5, 50, 2), c.ProjectionMatrix())
}

func TestSettersRecomputeSynchronously(t *testing.T) {
	tests := []struct {
		name           string
		set            func(c *PerspectiveCamera)
		viewChanged    bool
		projectChanged bool
	}{
		{"position", func(c *PerspectiveCamera) { c.SetPosition(math.Vec3{1, 1, 1}) }, true, false},
		{"rotation", func(c *PerspectiveCamera) { c.SetRotation(math.Vec3{0, 30, 0}) }, true, false},
		{"fov", func(c *PerspectiveCamera) { c.SetFOV(70) }, false, true},
		{"near", func(c *PerspectiveCamera) { c.SetNear(1) }, false, true},
		{"far", func(c *PerspectiveCamera) { c.SetFar(500) }, false, true},
		{"aspect", func(c *PerspectiveCamera) { c.SetAspect(16.0 / 9.0) }, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			view, proj := c.ViewMatrix(), c.ProjectionMatrix()

			tt.set(c)

			assert.Equal(t, tt.viewChanged, view != c.ViewMatrix(), "view matrix changed")
			assert.Equal(t, tt.projectChanged, proj != c.ProjectionMatrix(), "projection matrix changed")

			// Derived matrices always match the current parameters.
			assert.Equal(t, math.ViewMatrix(c.Position(), c.Rotation()), c.ViewMatrix())
			assert.Equal(t, math.Projection(c.FOV(), c.Near(), c.Far(), c.Aspect()), c.ProjectionMatrix())
		})
	}
}

func TestSetFOVIdempotent(t *testing.T) {
	once := New()
	once.SetFOV(45)

	twice := New()
	twice.SetFOV(45)
	twice.SetFOV(45)

	assert.Equal(t, once.ProjectionMatrix(), twice.ProjectionMatrix())
}

func TestSetAspectLeavesViewUntouched(t *testing.T) {
	c := New()
	defaultView := c.ViewMatrix()
	defaultProj := c.ProjectionMatrix()

	c.SetAspect(16.0 / 9.0)

	assert.Equal(t, defaultView, c.ViewMatrix())
	assert.NotEqual(t, defaultProj, c.ProjectionMatrix())
	assert.InDelta(t, 2.414/(16.0/9.0), c.ProjectionMatrix()[0], 0.001)
}
