// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MeshVertexShader transforms the mesh and builds the tangent frame.
//
//go:embed mesh.vert
var MeshVertexShader string

// MeshFragmentShader shades with Blinn-Phong and a tangent-space normal map.
//
//go:embed mesh.frag
var MeshFragmentShader string
