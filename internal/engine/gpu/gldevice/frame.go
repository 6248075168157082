package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/pbrview/internal/engine/gpu"
)

// frame issues GL calls immediately; there is no deferred command buffer.
type frame struct {
	device   *Device
	pipeline *pipeline
	ended    bool
}

func (f *frame) reset() {
	f.pipeline = nil
	f.ended = false
}

func (f *frame) SetDepthStencilState(id gpu.DepthStencilID) {
	desc, ok := f.device.depthStates[id]
	if !ok {
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(compareFuncs[desc.Compare])
	gl.DepthMask(desc.WriteEnabled)
}

func (f *frame) SetPipeline(id gpu.PipelineID) {
	p, ok := f.device.pipelines[id]
	if !ok {
		return
	}
	f.pipeline = p
	gl.UseProgram(p.program)
	gl.BindVertexArray(p.vao)
}

func (f *frame) SetVertexBytes(slot int, data []byte) {
	f.setBytes(slot, data)
}

// Vertex and fragment stages share uniform block bindings in GL.
func (f *frame) SetFragmentBytes(slot int, data []byte) {
	f.setBytes(slot, data)
}

func (f *frame) setBytes(slot int, data []byte) {
	if f.pipeline == nil || len(data) == 0 {
		return
	}
	ubo, ok := f.pipeline.blocks[slot]
	if !ok {
		return
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, len(data), gl.Ptr(data), gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(slot), ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

// SetVertexBuffer points every attribute fed by slot at buf.
func (f *frame) SetVertexBuffer(slot int, buf gpu.BufferID, offset int) {
	if f.pipeline == nil {
		return
	}
	b, ok := f.device.buffers[buf]
	if !ok {
		return
	}

	layout := f.pipeline.layout
	stride := 0
	if slot < len(layout.Strides) {
		stride = layout.Strides[slot]
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	for _, a := range layout.AttributesFor(slot) {
		gl.VertexAttribPointerWithOffset(a.Location, int32(a.Format.Components()), gl.FLOAT, false,
			int32(stride), uintptr(offset+a.Offset))
		gl.EnableVertexAttribArray(a.Location)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (f *frame) SetFragmentTexture(slot int, tex gpu.TextureID) {
	t, ok := f.device.textures[tex]
	if !ok {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, t)
}

func (f *frame) DrawIndexed(count int, indexType gpu.IndexType, buf gpu.BufferID, offset int) {
	if f.pipeline == nil {
		return
	}
	b, ok := f.device.buffers[buf]
	if !ok {
		return
	}

	elem := uint32(gl.UNSIGNED_INT)
	if indexType == gpu.IndexUint16 {
		elem = gl.UNSIGNED_SHORT
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)
	gl.DrawElements(gl.TRIANGLES, int32(count), elem, gl.PtrOffset(offset))
}

func (f *frame) EndEncoding() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	f.ended = true
}

// Present blits the offscreen target to the drawable and swaps buffers.
func (f *frame) Present(d gpu.Drawable) error {
	if !f.ended {
		return fmt.Errorf("present before EndEncoding")
	}
	w, h := d.Size()
	f.device.target.BlitToDefault(int32(w), int32(h))
	f.device.surface.SwapBuffers()
	return nil
}
