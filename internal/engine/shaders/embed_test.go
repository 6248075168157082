package shaders

import (
	"strings"
	"testing"
)

func TestShadersDeclareBindings(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"vertex", MeshVertexShader, []string{
			"#version 410 core",
			"uniform Uniforms",
			"layout(location = 0) in vec3 aPosition",
			"layout(location = 3) in vec3 aTangent",
			"layout(location = 4) in vec3 aBitangent",
		}},
		{"fragment", MeshFragmentShader, []string{
			"#version 410 core",
			"uniform Params",
			"uniform sampler2D baseColorMap",
			"uniform sampler2D normalMap",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, w := range tt.want {
				if !strings.Contains(tt.source, w) {
					t.Errorf("%s shader missing %q", tt.name, w)
				}
			}
		})
	}
}
