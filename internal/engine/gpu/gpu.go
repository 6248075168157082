// Package gpu defines the small device interface the renderer draws through.
//
// A Device owns GPU objects and hands out opaque IDs for them. Each frame is
// recorded into a Frame, then presented onto a Drawable obtained from the
// same device. Implementations live in subpackages: gldevice for OpenGL and
// gputest for an in-memory recorder.
package gpu

import (
	"errors"
	"image"
	"unsafe"
)

// Device errors.
var (
	ErrNoDevice                 = errors.New("no graphics device available")
	ErrCommandBufferUnavailable = errors.New("command buffer unavailable")
	ErrSurfaceUnavailable       = errors.New("presentable surface unavailable")
	ErrPipeline                 = errors.New("pipeline creation failed")
	ErrDepthState               = errors.New("depth-stencil state creation failed")
)

// Object handles. Zero is never a valid handle.
type (
	BufferID       uint32
	TextureID      uint32
	PipelineID     uint32
	DepthStencilID uint32
)

// BufferUsage tells the device how a buffer will be bound.
type BufferUsage int

const (
	VertexBuffer BufferUsage = iota
	IndexBuffer
)

// IndexType is the element size of an index buffer.
type IndexType int

const (
	IndexUint16 IndexType = iota
	IndexUint32
)

// Size returns the size of one index in bytes.
func (t IndexType) Size() int {
	if t == IndexUint16 {
		return 2
	}
	return 4
}

func (t IndexType) String() string {
	if t == IndexUint16 {
		return "uint16"
	}
	return "uint32"
}

// PixelFormat identifies a render target format.
type PixelFormat int

const (
	BGRA8Unorm PixelFormat = iota
	Depth32Float
)

func (f PixelFormat) String() string {
	switch f {
	case BGRA8Unorm:
		return "bgra8unorm"
	case Depth32Float:
		return "depth32float"
	default:
		return "unknown"
	}
}

// VertexFormat is the type of one vertex attribute.
type VertexFormat int

const (
	Float2 VertexFormat = iota
	Float3
	Float4
)

// Components returns the number of float32 components.
func (f VertexFormat) Components() int {
	return int(f) + 2
}

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() int {
	return f.Components() * 4
}

// VertexAttribute maps a shader input location to bytes in a vertex buffer.
type VertexAttribute struct {
	Location    uint32
	Format      VertexFormat
	Offset      int
	BufferIndex int
}

// VertexLayout describes every attribute and the stride of each buffer slot.
type VertexLayout struct {
	Attributes []VertexAttribute
	Strides    []int // indexed by buffer slot
}

// AttributesFor returns the attributes fed by the given buffer slot.
func (l VertexLayout) AttributesFor(buffer int) []VertexAttribute {
	var out []VertexAttribute
	for _, a := range l.Attributes {
		if a.BufferIndex == buffer {
			out = append(out, a)
		}
	}
	return out
}

// PipelineDesc describes a render pipeline.
type PipelineDesc struct {
	Name           string
	VertexSource   string
	FragmentSource string
	Layout         VertexLayout
	ColorFormat    PixelFormat
	DepthFormat    PixelFormat

	// UniformBlocks maps shader block names to binding slots.
	UniformBlocks map[string]int
	// Samplers maps sampler uniform names to texture slots.
	Samplers map[string]int
}

// CompareFunction is a depth comparison.
type CompareFunction int

const (
	CompareNever CompareFunction = iota
	CompareLess
	CompareLessEqual
	CompareAlways
)

// DepthStencilDesc describes depth testing.
type DepthStencilDesc struct {
	Compare      CompareFunction
	WriteEnabled bool
}

// Device creates GPU objects and frames.
type Device interface {
	NewBuffer(usage BufferUsage, data []byte) (BufferID, error)
	NewTexture(img *image.RGBA) (TextureID, error)
	NewPipeline(desc PipelineDesc) (PipelineID, error)
	NewDepthStencilState(desc DepthStencilDesc) (DepthStencilID, error)

	// NewFrame starts recording a frame cleared to color.
	NewFrame(clear [4]float32) (Frame, error)
	// NextDrawable returns the surface the next frame presents to.
	NextDrawable() (Drawable, error)

	// Resize informs the device of a new drawable size in pixels.
	Resize(width, height int)
	// Release frees every object the device created.
	Release()
}

// Frame records the commands of one frame.
type Frame interface {
	SetDepthStencilState(id DepthStencilID)
	SetPipeline(id PipelineID)
	SetVertexBytes(slot int, data []byte)
	SetFragmentBytes(slot int, data []byte)
	SetVertexBuffer(slot int, buf BufferID, offset int)
	SetFragmentTexture(slot int, tex TextureID)
	DrawIndexed(count int, indexType IndexType, buf BufferID, offset int)
	EndEncoding()
	Present(d Drawable) error
}

// Drawable is a presentable surface.
type Drawable interface {
	Size() (width, height int)
}

// Bytes views a value as raw bytes without copying.
func Bytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// SliceBytes views a slice as raw bytes without copying.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
