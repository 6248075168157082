package renderer

import (
	"github.com/Faultbox/pbrview/internal/engine/scene"
	"github.com/Faultbox/pbrview/pkg/math"
)

// Binding slots shared with the shaders.
const (
	SlotVertices   = 0
	SlotTangents   = 1
	SlotBitangents = 2
	SlotUniforms   = 3
	SlotParams     = 4

	TextureBaseColor = 0
	TextureNormalMap = 1
)

// LightPosition is the world-space position of the single point light.
var LightPosition = math.Vec3{-1, 10, -5}

// Uniforms is the std140 layout of the vertex stage's "Uniforms" block.
type Uniforms struct {
	ModelMatrix      math.Mat4
	ViewMatrix       math.Mat4
	ProjectionMatrix math.Mat4
	NormalMatrix     [3][4]float32 // mat3 columns padded to vec4
	LightPosition    [3]float32
	_                float32
	ViewPosition     [3]float32
	_                float32
}

// Params is the std140 layout of the fragment stage's "Params" block.
type Params struct {
	AmbientStrength float32
	_               [3]float32
	AmbientColor    [3]float32
	_               float32
	LightColor      [3]float32
	_               float32
}

func packMat3(m math.Mat3) [3][4]float32 {
	var out [3][4]float32
	for c := 0; c < 3; c++ {
		col := m.Col(c)
		out[c] = [4]float32{col[0], col[1], col[2], 0}
	}
	return out
}

func newUniforms(model, view, projection math.Mat4, viewPos math.Vec3) Uniforms {
	return Uniforms{
		ModelMatrix:      model,
		ViewMatrix:       view,
		ProjectionMatrix: projection,
		NormalMatrix:     packMat3(math.NormalMatrix(model)),
		LightPosition:    LightPosition,
		ViewPosition:     viewPos,
	}
}

func newParams(env scene.Environment) Params {
	return Params{
		AmbientStrength: env.AmbientStrength,
		AmbientColor:    env.AmbientColor,
		LightColor:      env.LightColor,
	}
}
