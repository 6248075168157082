// Package gputest provides an in-memory gpu.Device that records every call.
package gputest

import (
	"fmt"
	"image"

	"github.com/Faultbox/pbrview/internal/engine/gpu"
)

// Command is one recorded frame command.
type Command struct {
	Op     string
	Slot   int
	ID     uint32
	Data   []byte
	Count  int
	Index  gpu.IndexType
	Offset int
}

func (c Command) String() string {
	return fmt.Sprintf("%s slot=%d id=%d", c.Op, c.Slot, c.ID)
}

// Buffer is a recorded buffer allocation.
type Buffer struct {
	Usage gpu.BufferUsage
	Data  []byte
}

// Device is a fake gpu.Device. Set the Fail* fields to inject errors.
type Device struct {
	Buffers     map[gpu.BufferID]Buffer
	Textures    map[gpu.TextureID]*image.RGBA
	Pipelines   map[gpu.PipelineID]gpu.PipelineDesc
	DepthStates map[gpu.DepthStencilID]gpu.DepthStencilDesc
	Frames      []*Frame
	Presented   int
	Width       int
	Height      int
	Released    bool

	FailPipeline   bool
	FailDepthState bool
	FailFrame      bool
	FailDrawable   bool

	next uint32
}

// NewDevice creates an empty recording device with an 800x600 drawable.
func NewDevice() *Device {
	return &Device{
		Buffers:     make(map[gpu.BufferID]Buffer),
		Textures:    make(map[gpu.TextureID]*image.RGBA),
		Pipelines:   make(map[gpu.PipelineID]gpu.PipelineDesc),
		DepthStates: make(map[gpu.DepthStencilID]gpu.DepthStencilDesc),
		Width:       800,
		Height:      600,
	}
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

// NewBuffer records a copy of data.
func (d *Device) NewBuffer(usage gpu.BufferUsage, data []byte) (gpu.BufferID, error) {
	id := gpu.BufferID(d.id())
	d.Buffers[id] = Buffer{Usage: usage, Data: append([]byte(nil), data...)}
	return id, nil
}

// NewTexture records img.
func (d *Device) NewTexture(img *image.RGBA) (gpu.TextureID, error) {
	if img == nil {
		return 0, fmt.Errorf("nil image")
	}
	id := gpu.TextureID(d.id())
	d.Textures[id] = img
	return id, nil
}

// NewPipeline records desc.
func (d *Device) NewPipeline(desc gpu.PipelineDesc) (gpu.PipelineID, error) {
	if d.FailPipeline {
		return 0, fmt.Errorf("%w: %s: injected failure", gpu.ErrPipeline, desc.Name)
	}
	id := gpu.PipelineID(d.id())
	d.Pipelines[id] = desc
	return id, nil
}

// NewDepthStencilState records desc.
func (d *Device) NewDepthStencilState(desc gpu.DepthStencilDesc) (gpu.DepthStencilID, error) {
	if d.FailDepthState {
		return 0, fmt.Errorf("%w: injected failure", gpu.ErrDepthState)
	}
	id := gpu.DepthStencilID(d.id())
	d.DepthStates[id] = desc
	return id, nil
}

// NewFrame starts a new recorded frame.
func (d *Device) NewFrame(clear [4]float32) (gpu.Frame, error) {
	if d.FailFrame {
		return nil, gpu.ErrCommandBufferUnavailable
	}
	f := &Frame{device: d, Clear: clear}
	d.Frames = append(d.Frames, f)
	return f, nil
}

// NextDrawable returns a drawable of the current size.
func (d *Device) NextDrawable() (gpu.Drawable, error) {
	if d.FailDrawable || d.Width == 0 || d.Height == 0 {
		return nil, gpu.ErrSurfaceUnavailable
	}
	return Drawable{W: d.Width, H: d.Height}, nil
}

// Resize records the new drawable size.
func (d *Device) Resize(width, height int) {
	d.Width, d.Height = width, height
}

// Release marks the device released.
func (d *Device) Release() {
	d.Released = true
}

// LastFrame returns the most recent frame, or nil.
func (d *Device) LastFrame() *Frame {
	if len(d.Frames) == 0 {
		return nil
	}
	return d.Frames[len(d.Frames)-1]
}

// Drawable is a fixed-size fake surface.
type Drawable struct {
	W, H int
}

// Size returns the surface size.
func (d Drawable) Size() (int, int) { return d.W, d.H }

// Frame records commands in order.
type Frame struct {
	Clear     [4]float32
	Commands  []Command
	Ended     bool
	Presented bool

	device *Device
}

func (f *Frame) record(c Command) {
	f.Commands = append(f.Commands, c)
}

func (f *Frame) SetDepthStencilState(id gpu.DepthStencilID) {
	f.record(Command{Op: "SetDepthStencilState", ID: uint32(id)})
}

func (f *Frame) SetPipeline(id gpu.PipelineID) {
	f.record(Command{Op: "SetPipeline", ID: uint32(id)})
}

func (f *Frame) SetVertexBytes(slot int, data []byte) {
	f.record(Command{Op: "SetVertexBytes", Slot: slot, Data: append([]byte(nil), data...)})
}

func (f *Frame) SetFragmentBytes(slot int, data []byte) {
	f.record(Command{Op: "SetFragmentBytes", Slot: slot, Data: append([]byte(nil), data...)})
}

func (f *Frame) SetVertexBuffer(slot int, buf gpu.BufferID, offset int) {
	f.record(Command{Op: "SetVertexBuffer", Slot: slot, ID: uint32(buf), Offset: offset})
}

func (f *Frame) SetFragmentTexture(slot int, tex gpu.TextureID) {
	f.record(Command{Op: "SetFragmentTexture", Slot: slot, ID: uint32(tex)})
}

func (f *Frame) DrawIndexed(count int, indexType gpu.IndexType, buf gpu.BufferID, offset int) {
	f.record(Command{Op: "DrawIndexed", ID: uint32(buf), Count: count, Index: indexType, Offset: offset})
}

func (f *Frame) EndEncoding() {
	f.Ended = true
	f.record(Command{Op: "EndEncoding"})
}

func (f *Frame) Present(d gpu.Drawable) error {
	if !f.Ended {
		return fmt.Errorf("present before EndEncoding")
	}
	f.Presented = true
	f.device.Presented++
	f.record(Command{Op: "Present"})
	return nil
}

// Ops returns the recorded operation names in order.
func (f *Frame) Ops() []string {
	ops := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		ops[i] = c.Op
	}
	return ops
}

// Find returns the first command with the given op and slot.
func (f *Frame) Find(op string, slot int) (Command, bool) {
	for _, c := range f.Commands {
		if c.Op == op && c.Slot == slot {
			return c, true
		}
	}
	return Command{}, false
}
