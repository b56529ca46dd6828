package buffer

import (
	"fmt"
	"unsafe"
)

// noCopy lets go vet's copylocks check flag ByteBuffer values copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ByteBuffer owns the byte storage described by a Descriptor.
//
// ByteBuffer is move-only. Copying a ByteBuffer by value and using the copy
// panics; use Take to transfer ownership. It takes no locks: concurrent
// writers must be serialized by the caller.
type ByteBuffer struct {
	_    noCopy
	addr *ByteBuffer
	desc Descriptor
	data []byte
}

// New allocates a zeroed buffer of desc.Stride()*desc.Count() bytes.
// A descriptor with zero stride or zero count yields an empty buffer.
func New(desc Descriptor) *ByteBuffer {
	b := &ByteBuffer{desc: desc}
	b.addr = b
	if n := desc.ByteSize(); n > 0 {
		b.data = make([]byte, n)
	}
	return b
}

// copyCheck panics if b was copied by value.
func (b *ByteBuffer) copyCheck() {
	if b.addr == nil {
		b.addr = b
		return
	}
	if b.addr != b {
		panic("buffer: ByteBuffer must not be copied by value")
	}
}

// Descriptor returns the buffer descriptor. Its count tracks Resize and Append.
func (b *ByteBuffer) Descriptor() Descriptor {
	b.copyCheck()
	return b.desc.withCount(b.NumElements())
}

// Stride returns the byte size of one element.
func (b *ByteBuffer) Stride() int {
	b.copyCheck()
	return b.desc.Stride()
}

// NumElements returns the number of whole elements held.
func (b *ByteBuffer) NumElements() int {
	b.copyCheck()
	stride := b.desc.Stride()
	if stride == 0 || len(b.data) == 0 {
		return 0
	}
	return len(b.data) / stride
}

// NumBytes returns the size of the byte block.
func (b *ByteBuffer) NumBytes() int {
	b.copyCheck()
	return len(b.data)
}

// IsEmpty reports whether the byte block has zero length.
func (b *ByteBuffer) IsEmpty() bool {
	b.copyCheck()
	return len(b.data) == 0
}

// Bytes returns the raw byte block. The slice aliases the buffer storage
// and is invalidated by Resize, Append and Take.
func (b *ByteBuffer) Bytes() []byte {
	b.copyCheck()
	if len(b.data) == 0 {
		return nil
	}
	return b.data
}

// ElementBytes returns the bytes of elements [start, start+count).
// It panics if the range exceeds the element count.
func (b *ByteBuffer) ElementBytes(start, count int) []byte {
	b.copyCheck()
	n := b.NumElements()
	if start < 0 || count < 0 || start+count > n {
		panic(fmt.Sprintf("buffer: element range [%d,%d) out of bounds (%d elements)", start, start+count, n))
	}
	stride := b.desc.Stride()
	return b.data[start*stride : (start+count)*stride]
}

// Resize changes the element count, zero-filling new elements.
func (b *ByteBuffer) Resize(count int) {
	b.copyCheck()
	if count < 0 {
		panic("buffer: negative element count")
	}
	size := count * b.desc.Stride()
	switch {
	case size <= len(b.data):
		b.data = b.data[:size]
	case size <= cap(b.data):
		old := len(b.data)
		b.data = b.data[:size]
		clear(b.data[old:])
	default:
		grown := make([]byte, size)
		copy(grown, b.data)
		b.data = grown
	}
	b.desc.count = count
}

// Reserve grows capacity to hold at least count elements without changing
// the element count.
func (b *ByteBuffer) Reserve(count int) {
	b.copyCheck()
	size := count * b.desc.Stride()
	if size <= cap(b.data) {
		return
	}
	grown := make([]byte, len(b.data), size)
	copy(grown, b.data)
	b.data = grown
}

// Take moves the payload into a new ByteBuffer and leaves b empty with the
// same format.
func (b *ByteBuffer) Take() *ByteBuffer {
	b.copyCheck()
	moved := &ByteBuffer{desc: b.desc.withCount(b.NumElements()), data: b.data}
	moved.addr = moved
	b.data = nil
	b.desc.count = 0
	return moved
}

func checkStride[T any](b *ByteBuffer) {
	var zero T
	if size := int(unsafe.Sizeof(zero)); size != b.desc.Stride() {
		panic(fmt.Sprintf("buffer: element size %d does not match stride %d", size, b.desc.Stride()))
	}
}

// Elements reinterprets the buffer as a slice of T. The slice aliases the
// buffer storage. It returns nil for an empty buffer and panics when the
// size of T differs from the stride.
func Elements[T any](b *ByteBuffer) []T {
	b.copyCheck()
	if len(b.data) == 0 {
		return nil
	}
	checkStride[T](b)
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), b.NumElements())
}

// SetElement stores v at element index i.
func SetElement[T any](b *ByteBuffer, i int, v T) {
	elems := Elements[T](b)
	if i < 0 || i >= len(elems) {
		panic(fmt.Sprintf("buffer: element %d out of bounds (%d elements)", i, len(elems)))
	}
	elems[i] = v
}

// SetElementRange stores vs starting at element offset. Empty input is a no-op.
func SetElementRange[T any](b *ByteBuffer, offset int, vs []T) {
	if len(vs) == 0 {
		return
	}
	elems := Elements[T](b)
	if offset < 0 || offset+len(vs) > len(elems) {
		panic(fmt.Sprintf("buffer: range [%d,%d) out of bounds (%d elements)", offset, offset+len(vs), len(elems)))
	}
	copy(elems[offset:], vs)
}
