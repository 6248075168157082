// Package shader provides OpenGL shader compilation and binding utilities.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ErrNotFound is returned when a named block or uniform is not active in a program.
var ErrNotFound = errors.New("not active in program")

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := programLog(program)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", log)
	}

	return program, nil
}

// BindUniformBlock attaches the named std140 block to a buffer binding point.
func BindUniformBlock(program uint32, name string, binding uint32) error {
	cname, free := gl.Strs(name + "\x00")
	defer free()

	index := gl.GetUniformBlockIndex(program, *cname)
	if index == gl.INVALID_INDEX {
		return fmt.Errorf("uniform block %q: %w", name, ErrNotFound)
	}
	gl.UniformBlockBinding(program, index, binding)
	return nil
}

// BindSampler points the named sampler uniform at a texture unit.
// The program is left bound.
func BindSampler(program uint32, name string, unit int32) error {
	loc := GetUniform(program, name)
	if loc < 0 {
		return fmt.Errorf("sampler %q: %w", name, ErrNotFound)
	}
	gl.UseProgram(program)
	gl.Uniform1i(loc, unit)
	return nil
}

// GetUniform returns the uniform location for the given name, or -1.
func GetUniform(program uint32, name string) int32 {
	cname, free := gl.Strs(name + "\x00")
	defer free()
	return gl.GetUniformLocation(program, *cname)
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, trimLog(log))
	}

	return shader, nil
}

func programLog(program uint32) string {
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	log := make([]byte, logLen+1)
	gl.GetProgramInfoLog(program, logLen, nil, &log[0])
	return trimLog(log)
}

// trimLog strips the NUL terminator and trailing whitespace from an info log.
func trimLog(log []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(log), "\x00"))
}
