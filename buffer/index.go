package buffer

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

// indexWidth returns the byte width of a fixed-width buffer and panics for
// other formats.
func (b *ByteBuffer) indexWidth() int {
	switch b.desc.format {
	case FormatFixed16:
		return 2
	case FormatFixed32:
		return 4
	default:
		panic(fmt.Sprintf("buffer: index access on %v buffer", b.desc.format))
	}
}

func putIndex(dst []byte, width int, v uint32) {
	if width == 2 {
		// Values >= 65536 wrap; callers validate index magnitude.
		binary.LittleEndian.PutUint16(dst, uint16(v)) //nolint:gosec // truncation is the fixed-width-16 contract
		return
	}
	binary.LittleEndian.PutUint32(dst, v)
}

// Append adds one index at the end of a fixed-width buffer. A 16-bit buffer
// stores v modulo 65536.
func (b *ByteBuffer) Append(v uint32) {
	b.copyCheck()
	w := b.indexWidth()
	var tmp [4]byte
	putIndex(tmp[:], w, v)
	b.data = append(b.data, tmp[:w]...)
	b.desc.count = len(b.data) / w
}

// AppendRange appends every value of vs.
func (b *ByteBuffer) AppendRange(vs []uint32) {
	b.Reserve(b.NumElements() + len(vs))
	for _, v := range vs {
		b.Append(v)
	}
}

// AppendIndices appends indices of any unsigned integer type.
func AppendIndices[T constraints.Unsigned](b *ByteBuffer, vs ...T) {
	b.Reserve(b.NumElements() + len(vs))
	for _, v := range vs {
		b.Append(uint32(v)) //nolint:gosec // fixed-width semantics apply
	}
}

// Index returns the index stored at position i.
func (b *ByteBuffer) Index(i int) uint32 {
	b.copyCheck()
	w := b.indexWidth()
	n := len(b.data) / w
	if i < 0 || i >= n {
		panic(fmt.Sprintf("buffer: index %d out of bounds (%d elements)", i, n))
	}
	if w == 2 {
		return uint32(binary.LittleEndian.Uint16(b.data[i*2:]))
	}
	return binary.LittleEndian.Uint32(b.data[i*4:])
}

// SetIndex stores v at position i.
func (b *ByteBuffer) SetIndex(i int, v uint32) {
	b.SetIndexRange(i, []uint32{v})
}

// SetIndexRange stores vs starting at position offset.
func (b *ByteBuffer) SetIndexRange(offset int, vs []uint32) {
	b.copyCheck()
	w := b.indexWidth()
	n := len(b.data) / w
	if offset < 0 || offset+len(vs) > n {
		panic(fmt.Sprintf("buffer: index range [%d,%d) out of bounds (%d elements)", offset, offset+len(vs), n))
	}
	for i, v := range vs {
		putIndex(b.data[(offset+i)*w:], w, v)
	}
}

// Indices returns every index widened to uint32.
func (b *ByteBuffer) Indices() []uint32 {
	b.copyCheck()
	w := b.indexWidth()
	out := make([]uint32, len(b.data)/w)
	for i := range out {
		out[i] = b.Index(i)
	}
	return out
}
