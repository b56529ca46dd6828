package stream

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/buffer"
)

// IndexView presents a range of a fixed-width buffer as an index stream.
type IndexView struct {
	view
	format gputypes.IndexFormat
}

// NewIndexView creates a view of count indices starting at start of the
// buffer observed by weak. The caller keeps the buffer alive.
func NewIndexView(up *Uploader, weak buffer.Weak, mode AccessMode, start, count int) *IndexView {
	v := &IndexView{}
	if hold := weak.Acquire(); hold != nil {
		v.format = hold.Buffer().Descriptor().IndexFormat()
		hold.Release()
		if v.format == gputypes.IndexFormatUndefined {
			panic("stream: index view over a buffer without a fixed-width format")
		}
	}
	v.init(up, weak, mode, gputypes.BufferUsageIndex, "indices", start, count)
	return v
}

// NewIndexViewCount allocates a zeroed index buffer of count indices of
// width bytes (2 or 4) and a view over all of it. The view owns the buffer.
func NewIndexViewCount(up *Uploader, width, count int, mode AccessMode) *IndexView {
	ref := buffer.Share(buffer.New(buffer.NewFixedWidthIndex(count, width)))
	v := NewIndexView(up, ref.Weak(), mode, 0, count)
	v.owned = ref
	return v
}

// Format returns the index format.
func (v *IndexView) Format() gputypes.IndexFormat { return v.format }

// Bind sets the view as the index buffer. It reports false and binds
// nothing for an invalid view.
func (v *IndexView) Bind(pass hal.RenderPassEncoder) bool {
	if !v.IsValid() {
		return false
	}
	pass.SetIndexBuffer(v.dev.Get(), v.format, 0)
	return true
}
