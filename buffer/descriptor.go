package buffer

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Format is the element format of a buffer.
type Format uint8

const (
	// FormatUnknown has no stride; buffers with this format are empty.
	FormatUnknown Format = iota
	// FormatFixed16 holds 16-bit unsigned indices.
	FormatFixed16
	// FormatFixed32 holds 32-bit unsigned indices.
	FormatFixed32
	// FormatStructured holds elements described by a Layout.
	FormatStructured
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatUnknown:
		return "Unknown"
	case FormatFixed16:
		return "Fixed16"
	case FormatFixed32:
		return "Fixed32"
	case FormatStructured:
		return "Structured"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Descriptor describes the element format and element count of a buffer.
// The layout is only meaningful for FormatStructured.
type Descriptor struct {
	format Format
	layout Layout
	count  int
}

// NewFixedWidthIndex returns a descriptor for count indices of the given
// byte width. Width must be 2 or 4.
func NewFixedWidthIndex(count, width int) Descriptor {
	if count < 0 {
		panic("buffer: negative element count")
	}
	switch width {
	case 2:
		return Descriptor{format: FormatFixed16, count: count}
	case 4:
		return Descriptor{format: FormatFixed32, count: count}
	default:
		panic(fmt.Sprintf("buffer: unsupported index width %d", width))
	}
}

// NewStructured returns a descriptor for count elements of layout.
func NewStructured(layout Layout, count int) Descriptor {
	if count < 0 {
		panic("buffer: negative element count")
	}
	return Descriptor{format: FormatStructured, layout: layout, count: count}
}

// Format returns the element format.
func (d Descriptor) Format() Format { return d.format }

// Layout returns the structured layout. It is the zero Layout for index formats.
func (d Descriptor) Layout() Layout { return d.layout }

// Count returns the element count.
func (d Descriptor) Count() int { return d.count }

// Stride returns the byte size of one element, or 0 when the format has none.
func (d Descriptor) Stride() int {
	switch d.format {
	case FormatFixed16:
		return 2
	case FormatFixed32:
		return 4
	case FormatStructured:
		return d.layout.Stride()
	default:
		return 0
	}
}

// ByteSize returns Stride() * Count().
func (d Descriptor) ByteSize() int {
	return d.Stride() * d.count
}

// IsEmpty reports whether the descriptor allocates no storage.
func (d Descriptor) IsEmpty() bool {
	return d.ByteSize() == 0
}

// IndexFormat returns the device index format for fixed-width descriptors
// and IndexFormatUndefined otherwise.
func (d Descriptor) IndexFormat() gputypes.IndexFormat {
	switch d.format {
	case FormatFixed16:
		return gputypes.IndexFormatUint16
	case FormatFixed32:
		return gputypes.IndexFormatUint32
	default:
		return gputypes.IndexFormatUndefined
	}
}

// withCount returns a copy of d with a different element count.
func (d Descriptor) withCount(n int) Descriptor {
	d.count = n
	return d
}
