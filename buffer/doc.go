// Package buffer provides CPU-side vertex and index storage for GPU upload.
//
// # Overview
//
// A [Descriptor] describes what a buffer holds: a fixed-width index format
// (16 or 32 bit) or a structured vertex [Layout], plus an element count. The
// stride of one element is derived from the descriptor and never stored
// separately.
//
// A [ByteBuffer] owns the zero-initialized byte block described by a
// descriptor. It is move-only: copying a ByteBuffer by value is detected and
// panics, and [ByteBuffer.Take] transfers the payload explicitly.
//
// # Typed access
//
// [Elements], [SetElement] and [SetElementRange] reinterpret the byte block
// as a slice of T. The size of T must equal the stride; a mismatch or an
// out-of-range write is a programming error and panics.
//
//	type vec3 struct{ X, Y, Z float32 }
//
//	layout := buffer.NewLayout(buffer.Field{Semantic: buffer.Position, Format: gputypes.VertexFormatFloat32x3})
//	b := buffer.New(buffer.NewStructured(layout, 4))
//	buffer.SetElementRange(b, 1, []vec3{{1, 2, 3}, {4, 5, 6}})
//
// # Shared ownership
//
// [Share] wraps a ByteBuffer in a reference-counted [Ref]. Device streams
// observe the buffer through a [Weak] and promote it to a short-lived strong
// hold only while an upload references the memory.
package buffer
