package stream

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/buffer"
)

// VertexView presents a range of a structured buffer as a vertex stream.
type VertexView struct {
	view
	layout buffer.Layout
}

// NewVertexView creates a view of count vertices starting at start of the
// buffer observed by weak. The caller keeps the buffer alive.
func NewVertexView(up *Uploader, weak buffer.Weak, mode AccessMode, start, count int) *VertexView {
	v := &VertexView{}
	if hold := weak.Acquire(); hold != nil {
		d := hold.Buffer().Descriptor()
		hold.Release()
		if d.Format() != buffer.FormatStructured {
			panic("stream: vertex view over a " + d.Format().String() + " buffer")
		}
		v.layout = d.Layout()
	}
	v.init(up, weak, mode, gputypes.BufferUsageVertex, "vertices", start, count)
	return v
}

// NewVertexViewCount allocates a zeroed buffer of count vertices with layout
// and a view over all of it. The view owns the buffer.
func NewVertexViewCount(up *Uploader, layout buffer.Layout, count int, mode AccessMode) *VertexView {
	ref := buffer.Share(buffer.New(buffer.NewStructured(layout, count)))
	v := NewVertexView(up, ref.Weak(), mode, 0, count)
	v.owned = ref
	return v
}

// Layout returns the vertex layout.
func (v *VertexView) Layout() buffer.Layout { return v.layout }

// VertexBufferLayout returns the pipeline description of this stream.
func (v *VertexView) VertexBufferLayout(step gputypes.VertexStepMode) gputypes.VertexBufferLayout {
	return v.layout.VertexBufferLayout(step)
}

// Bind sets the view as the vertex buffer at slot, offset to the first
// vertex of the draw range. It reports false and binds nothing for an
// invalid view.
func (v *VertexView) Bind(pass hal.RenderPassEncoder, slot uint32) bool {
	if !v.IsValid() {
		return false
	}
	pass.SetVertexBuffer(slot, v.dev.Get(), uint64(v.start*v.stride)) //nolint:gosec // non-negative
	return true
}
