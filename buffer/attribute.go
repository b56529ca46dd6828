package buffer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
	"golang.org/x/image/math/f32"
)

type componentKind uint8

const (
	kindUint componentKind = iota
	kindSint
	kindUnorm
	kindSnorm
	kindFloat
	kindPacked1010102
)

// formatInfo is the component breakdown of a vertex format.
type formatInfo struct {
	n     int // component count
	width int // bytes per component
	kind  componentKind
}

func lookupFormat(f gputypes.VertexFormat) (formatInfo, bool) {
	switch f {
	case gputypes.VertexFormatUint8x2:
		return formatInfo{2, 1, kindUint}, true
	case gputypes.VertexFormatUint8x4:
		return formatInfo{4, 1, kindUint}, true
	case gputypes.VertexFormatSint8x2:
		return formatInfo{2, 1, kindSint}, true
	case gputypes.VertexFormatSint8x4:
		return formatInfo{4, 1, kindSint}, true
	case gputypes.VertexFormatUnorm8x2:
		return formatInfo{2, 1, kindUnorm}, true
	case gputypes.VertexFormatUnorm8x4:
		return formatInfo{4, 1, kindUnorm}, true
	case gputypes.VertexFormatSnorm8x2:
		return formatInfo{2, 1, kindSnorm}, true
	case gputypes.VertexFormatSnorm8x4:
		return formatInfo{4, 1, kindSnorm}, true
	case gputypes.VertexFormatUint16x2:
		return formatInfo{2, 2, kindUint}, true
	case gputypes.VertexFormatUint16x4:
		return formatInfo{4, 2, kindUint}, true
	case gputypes.VertexFormatSint16x2:
		return formatInfo{2, 2, kindSint}, true
	case gputypes.VertexFormatSint16x4:
		return formatInfo{4, 2, kindSint}, true
	case gputypes.VertexFormatUnorm16x2:
		return formatInfo{2, 2, kindUnorm}, true
	case gputypes.VertexFormatUnorm16x4:
		return formatInfo{4, 2, kindUnorm}, true
	case gputypes.VertexFormatSnorm16x2:
		return formatInfo{2, 2, kindSnorm}, true
	case gputypes.VertexFormatSnorm16x4:
		return formatInfo{4, 2, kindSnorm}, true
	case gputypes.VertexFormatFloat16x2:
		return formatInfo{2, 2, kindFloat}, true
	case gputypes.VertexFormatFloat16x4:
		return formatInfo{4, 2, kindFloat}, true
	case gputypes.VertexFormatFloat32:
		return formatInfo{1, 4, kindFloat}, true
	case gputypes.VertexFormatFloat32x2:
		return formatInfo{2, 4, kindFloat}, true
	case gputypes.VertexFormatFloat32x3:
		return formatInfo{3, 4, kindFloat}, true
	case gputypes.VertexFormatFloat32x4:
		return formatInfo{4, 4, kindFloat}, true
	case gputypes.VertexFormatUint32:
		return formatInfo{1, 4, kindUint}, true
	case gputypes.VertexFormatUint32x2:
		return formatInfo{2, 4, kindUint}, true
	case gputypes.VertexFormatUint32x3:
		return formatInfo{3, 4, kindUint}, true
	case gputypes.VertexFormatUint32x4:
		return formatInfo{4, 4, kindUint}, true
	case gputypes.VertexFormatSint32:
		return formatInfo{1, 4, kindSint}, true
	case gputypes.VertexFormatSint32x2:
		return formatInfo{2, 4, kindSint}, true
	case gputypes.VertexFormatSint32x3:
		return formatInfo{3, 4, kindSint}, true
	case gputypes.VertexFormatSint32x4:
		return formatInfo{4, 4, kindSint}, true
	case gputypes.VertexFormatUnorm1010102:
		return formatInfo{4, 4, kindPacked1010102}, true
	default:
		return formatInfo{}, false
	}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HasAttribute reports whether the buffer layout declares the semantic.
func (b *ByteBuffer) HasAttribute(s Semantic) bool {
	b.copyCheck()
	return b.desc.format == FormatStructured && b.desc.layout.Has(s)
}

// Attribute unpacks the attribute s of element i into a 4-component vector.
// Components the format does not store are zero. An empty buffer or a
// missing semantic leaves the result untouched and reports false.
func (b *ByteBuffer) Attribute(i int, s Semantic) (f32.Vec4, bool) {
	var out f32.Vec4
	src, info, ok := b.attributeBytes(i, s)
	if !ok {
		return out, false
	}
	if info.kind == kindPacked1010102 {
		u := binary.LittleEndian.Uint32(src)
		out[0] = float32(u&0x3ff) / 1023
		out[1] = float32((u>>10)&0x3ff) / 1023
		out[2] = float32((u>>20)&0x3ff) / 1023
		out[3] = float32(u>>30) / 3
		return out, true
	}
	for c := 0; c < info.n; c++ {
		out[c] = unpackComponent(src[c*info.width:], info)
	}
	return out, true
}

// SetAttribute packs v into the attribute s of element i according to the
// field format. When normalized is set the input is taken to lie in [-1,1]
// and unsigned normalized formats remap it to [0,1]. An empty buffer or a
// missing semantic is a silent no-op reported as false.
func (b *ByteBuffer) SetAttribute(i int, s Semantic, normalized bool, v f32.Vec4) bool {
	dst, info, ok := b.attributeBytes(i, s)
	if !ok {
		return false
	}
	if info.kind == kindPacked1010102 {
		var u uint32
		for c, bits := range [4]uint{10, 10, 10, 2} {
			x := v[c]
			if normalized {
				x = x*0.5 + 0.5
			}
			maxv := float32(uint32(1)<<bits - 1)
			q := uint32(math.Round(float64(clamp(x, 0, 1) * maxv)))
			u |= q << (10 * uint(c)) //nolint:gosec // c < 4
		}
		binary.LittleEndian.PutUint32(dst, u)
		return true
	}
	for c := 0; c < info.n; c++ {
		packComponent(dst[c*info.width:], info, normalized, v[c])
	}
	return true
}

func (b *ByteBuffer) attributeBytes(i int, s Semantic) ([]byte, formatInfo, bool) {
	b.copyCheck()
	if len(b.data) == 0 || b.desc.format != FormatStructured {
		return nil, formatInfo{}, false
	}
	field, ok := b.desc.layout.Field(s)
	if !ok {
		return nil, formatInfo{}, false
	}
	info, ok := lookupFormat(field.Format)
	if !ok {
		return nil, formatInfo{}, false
	}
	n := b.NumElements()
	if i < 0 || i >= n {
		panic(fmt.Sprintf("buffer: attribute element %d out of bounds (%d elements)", i, n))
	}
	start := i*b.desc.Stride() + field.Offset
	return b.data[start : start+int(field.Format.Size())], info, true
}

func packComponent(dst []byte, info formatInfo, normalized bool, x float32) {
	switch info.kind {
	case kindFloat:
		if info.width == 2 {
			binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(x).Bits())
			return
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(x))
	case kindUnorm:
		if normalized {
			x = x*0.5 + 0.5
		}
		putUint(dst, info.width, uint32(math.Round(float64(clamp(x, 0, 1))*unsignedMax(info.width))))
	case kindSnorm:
		q := int32(math.Round(float64(clamp(x, -1, 1)) * signedMax(info.width)))
		putUint(dst, info.width, uint32(q)) //nolint:gosec // two's complement store
	case kindUint:
		putUint(dst, info.width, uint32(clamp(float64(x), 0, unsignedMax(info.width))))
	case kindSint:
		lim := signedMax(info.width)
		q := int32(clamp(float64(x), -lim-1, lim))
		putUint(dst, info.width, uint32(q)) //nolint:gosec // two's complement store
	}
}

func unpackComponent(src []byte, info formatInfo) float32 {
	switch info.kind {
	case kindFloat:
		if info.width == 2 {
			return float16.Frombits(binary.LittleEndian.Uint16(src)).Float32()
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(src))
	case kindUnorm:
		return float32(float64(getUint(src, info.width)) / unsignedMax(info.width))
	case kindSnorm:
		v := float64(getInt(src, info.width)) / signedMax(info.width)
		return float32(math.Max(v, -1))
	case kindUint:
		return float32(getUint(src, info.width))
	case kindSint:
		return float32(getInt(src, info.width))
	default:
		return 0
	}
}

func unsignedMax(width int) float64 {
	return float64(uint64(1)<<(8*uint(width)) - 1) //nolint:gosec // width is 1, 2 or 4
}

func signedMax(width int) float64 {
	return float64(uint64(1)<<(8*uint(width)-1) - 1) //nolint:gosec // width is 1, 2 or 4
}

func putUint(dst []byte, width int, v uint32) {
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v)) //nolint:gosec // masked by width
	default:
		binary.LittleEndian.PutUint32(dst, v)
	}
}

func getUint(src []byte, width int) uint32 {
	switch width {
	case 1:
		return uint32(src[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(src))
	default:
		return binary.LittleEndian.Uint32(src)
	}
}

func getInt(src []byte, width int) int32 {
	switch width {
	case 1:
		return int32(int8(src[0])) //nolint:gosec // sign reinterpretation
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(src))) //nolint:gosec // sign reinterpretation
	default:
		return int32(binary.LittleEndian.Uint32(src)) //nolint:gosec // sign reinterpretation
	}
}
