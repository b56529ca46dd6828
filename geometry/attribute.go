package geometry

import (
	"golang.org/x/image/math/f32"

	"github.com/gogpu/gpures/buffer"
)

// Find returns the first buffer whose layout carries s, or nil.
func Find(bufs []*buffer.ByteBuffer, s buffer.Semantic) *buffer.ByteBuffer {
	for _, b := range bufs {
		if b != nil && b.HasAttribute(s) {
			return b
		}
	}
	return nil
}

// HasAttribute reports whether any buffer carries s.
func HasAttribute(bufs []*buffer.ByteBuffer, s buffer.Semantic) bool {
	return Find(bufs, s) != nil
}

// Attribute reads s of vertex i. It reports false when no buffer carries s
// or the carrying buffer is empty.
func Attribute(bufs []*buffer.ByteBuffer, i int, s buffer.Semantic) (f32.Vec4, bool) {
	b := Find(bufs, s)
	if b == nil {
		return f32.Vec4{}, false
	}
	return b.Attribute(i, s)
}

// SetAttribute writes s of vertex i. It reports whether a write happened.
func SetAttribute(bufs []*buffer.ByteBuffer, i int, s buffer.Semantic, normalized bool, v f32.Vec4) bool {
	b := Find(bufs, s)
	if b == nil {
		return false
	}
	return b.SetAttribute(i, s, normalized, v)
}

// VertexCount returns the element count shared by the non-empty buffers, or
// the smallest one when they disagree.
func VertexCount(bufs []*buffer.ByteBuffer) int {
	n := -1
	for _, b := range bufs {
		if b == nil || b.IsEmpty() {
			continue
		}
		if n < 0 || b.NumElements() < n {
			n = b.NumElements()
		}
	}
	return max(n, 0)
}
