// Package gldevice implements gpu.Device on an OpenGL 4.1 core context.
//
// Frames render into an offscreen framebuffer with the requested color and
// depth formats and are blitted to the window on Present. All methods must
// be called on the thread that owns the GL context.
package gldevice

import (
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/pbrview/internal/engine/framebuffer"
	"github.com/Faultbox/pbrview/internal/engine/gpu"
	"github.com/Faultbox/pbrview/internal/engine/shader"
	"github.com/Faultbox/pbrview/internal/logger"
)

// Surface is the window the device presents to.
type Surface interface {
	SwapBuffers()
	DrawableSize() (width, height int)
}

type buffer struct {
	id    uint32
	usage gpu.BufferUsage
}

type pipeline struct {
	program uint32
	vao     uint32
	layout  gpu.VertexLayout
	blocks  map[int]uint32 // binding slot -> uniform buffer
}

// Device is an OpenGL gpu.Device.
type Device struct {
	surface Surface
	target  *framebuffer.Framebuffer

	buffers     map[gpu.BufferID]buffer
	textures    map[gpu.TextureID]uint32
	pipelines   map[gpu.PipelineID]*pipeline
	depthStates map[gpu.DepthStencilID]gpu.DepthStencilDesc
	next        uint32

	frame frame
}

// New loads GL function pointers for the current context and creates the
// offscreen target at the surface's drawable size.
func New(surface Surface) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", gpu.ErrNoDevice, err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	if !glVersionAtLeast(version, 4, 1) {
		return nil, fmt.Errorf("%w: OpenGL %q is older than 4.1", gpu.ErrNoDevice, version)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	w, h := surface.DrawableSize()
	target, err := framebuffer.New(int32(w), int32(h))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gpu.ErrNoDevice, err)
	}

	d := &Device{
		surface:     surface,
		target:      target,
		buffers:     make(map[gpu.BufferID]buffer),
		textures:    make(map[gpu.TextureID]uint32),
		pipelines:   make(map[gpu.PipelineID]*pipeline),
		depthStates: make(map[gpu.DepthStencilID]gpu.DepthStencilDesc),
	}
	d.frame.device = d
	return d, nil
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

// NewBuffer uploads data into a static buffer.
func (d *Device) NewBuffer(usage gpu.BufferUsage, data []byte) (gpu.BufferID, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty buffer")
	}

	target := uint32(gl.ARRAY_BUFFER)
	if usage == gpu.IndexBuffer {
		// Element buffers bind through the VAO; upload via the copy target instead.
		target = gl.COPY_WRITE_BUFFER
	}

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(target, vbo)
	gl.BufferData(target, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(target, 0)

	id := gpu.BufferID(d.id())
	d.buffers[id] = buffer{id: vbo, usage: usage}
	return id, nil
}

// NewTexture uploads img as a mipmapped, repeating RGBA8 texture.
func (d *Device) NewTexture(img *image.RGBA) (gpu.TextureID, error) {
	if img == nil || img.Rect.Empty() {
		return 0, fmt.Errorf("empty texture")
	}
	w, h := int32(img.Rect.Dx()), int32(img.Rect.Dy())

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	id := gpu.TextureID(d.id())
	d.textures[id] = tex
	return id, nil
}

// NewPipeline compiles the program, binds its uniform blocks and samplers to
// the requested slots, and creates a vertex array for the layout.
func (d *Device) NewPipeline(desc gpu.PipelineDesc) (gpu.PipelineID, error) {
	if desc.ColorFormat != gpu.BGRA8Unorm || desc.DepthFormat != gpu.Depth32Float {
		return 0, fmt.Errorf("%w: %s: unsupported target formats %s/%s",
			gpu.ErrPipeline, desc.Name, desc.ColorFormat, desc.DepthFormat)
	}

	program, err := shader.CompileProgram(desc.VertexSource, desc.FragmentSource)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", gpu.ErrPipeline, desc.Name, err)
	}

	p := &pipeline{program: program, layout: desc.Layout, blocks: make(map[int]uint32)}

	for name, slot := range desc.UniformBlocks {
		if err := shader.BindUniformBlock(program, name, uint32(slot)); err != nil {
			p.destroy()
			return 0, fmt.Errorf("%w: %s: %v", gpu.ErrPipeline, desc.Name, err)
		}
		var ubo uint32
		gl.GenBuffers(1, &ubo)
		p.blocks[slot] = ubo
	}

	for name, unit := range desc.Samplers {
		if err := shader.BindSampler(program, name, int32(unit)); err != nil {
			// Unused samplers are optimized out; the draw still works.
			logger.Debug("sampler inactive", zap.String("pipeline", desc.Name), zap.String("sampler", name))
		}
	}

	gl.GenVertexArrays(1, &p.vao)

	id := gpu.PipelineID(d.id())
	d.pipelines[id] = p
	return id, nil
}

// NewDepthStencilState records desc; it is applied when bound.
func (d *Device) NewDepthStencilState(desc gpu.DepthStencilDesc) (gpu.DepthStencilID, error) {
	if _, ok := compareFuncs[desc.Compare]; !ok {
		return 0, fmt.Errorf("%w: compare function %d", gpu.ErrDepthState, desc.Compare)
	}
	id := gpu.DepthStencilID(d.id())
	d.depthStates[id] = desc
	return id, nil
}

// NewFrame binds the offscreen target and clears it. The target follows the
// drawable size even when a resize event has not been handled yet.
func (d *Device) NewFrame(color [4]float32) (gpu.Frame, error) {
	if d.target == nil {
		return nil, gpu.ErrCommandBufferUnavailable
	}
	if w, h := d.surface.DrawableSize(); w > 0 && h > 0 {
		if tw, th := d.target.Size(); int(tw) != w || int(th) != h {
			d.target.Resize(int32(w), int32(h))
		}
	}
	d.frame.reset()
	d.target.Bind()
	d.target.Clear(color[0], color[1], color[2], color[3])
	return &d.frame, nil
}

// NextDrawable returns the window's back buffer, or ErrSurfaceUnavailable
// while it has no area.
func (d *Device) NextDrawable() (gpu.Drawable, error) {
	w, h := d.surface.DrawableSize()
	if w <= 0 || h <= 0 {
		return nil, gpu.ErrSurfaceUnavailable
	}
	return drawable{w: w, h: h}, nil
}

// Resize reallocates the offscreen target.
func (d *Device) Resize(width, height int) {
	if d.target != nil && width > 0 && height > 0 {
		d.target.Resize(int32(width), int32(height))
	}
}

// Release deletes every GL object the device created.
func (d *Device) Release() {
	for _, p := range d.pipelines {
		p.destroy()
	}
	for _, b := range d.buffers {
		gl.DeleteBuffers(1, &b.id)
	}
	for _, t := range d.textures {
		gl.DeleteTextures(1, &t)
	}
	if d.target != nil {
		d.target.Destroy()
		d.target = nil
	}
	clear(d.pipelines)
	clear(d.buffers)
	clear(d.textures)
	clear(d.depthStates)
}

func (p *pipeline) destroy() {
	for _, ubo := range p.blocks {
		gl.DeleteBuffers(1, &ubo)
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
	}
	gl.DeleteProgram(p.program)
}

type drawable struct {
	w, h int
}

func (d drawable) Size() (int, int) { return d.w, d.h }

var compareFuncs = map[gpu.CompareFunction]uint32{
	gpu.CompareNever:     gl.NEVER,
	gpu.CompareLess:      gl.LESS,
	gpu.CompareLessEqual: gl.LEQUAL,
	gpu.CompareAlways:    gl.ALWAYS,
}

// glVersionAtLeast reports whether a GL_VERSION string is at least major.minor.
func glVersionAtLeast(version string, major, minor int) bool {
	var maj, min int
	if _, err := fmt.Sscanf(strings.TrimSpace(version), "%d.%d", &maj, &min); err != nil {
		return false
	}
	return maj > major || (maj == major && min >= minor)
}
