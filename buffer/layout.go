package buffer

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Semantic names the meaning of a vertex attribute.
type Semantic uint8

// Vertex attribute semantics.
const (
	Position Semantic = iota
	Normal
	Tangent
	Bitangent
	Color0
	Color1
	Color2
	Color3
	Indices
	Weight
	TexCoord0
	TexCoord1
	TexCoord2
	TexCoord3
	TexCoord4
	TexCoord5
	TexCoord6
	TexCoord7
)

var semanticNames = [...]string{
	Position:  "Position",
	Normal:    "Normal",
	Tangent:   "Tangent",
	Bitangent: "Bitangent",
	Color0:    "Color0",
	Color1:    "Color1",
	Color2:    "Color2",
	Color3:    "Color3",
	Indices:   "Indices",
	Weight:    "Weight",
	TexCoord0: "TexCoord0",
	TexCoord1: "TexCoord1",
	TexCoord2: "TexCoord2",
	TexCoord3: "TexCoord3",
	TexCoord4: "TexCoord4",
	TexCoord5: "TexCoord5",
	TexCoord6: "TexCoord6",
	TexCoord7: "TexCoord7",
}

// String returns the semantic name.
func (s Semantic) String() string {
	if int(s) < len(semanticNames) {
		return semanticNames[s]
	}
	return fmt.Sprintf("Semantic(%d)", int(s))
}

// Field is one attribute of a structured element.
type Field struct {
	// Semantic identifies the attribute.
	Semantic Semantic

	// Format is the packed storage format of the attribute.
	Format gputypes.VertexFormat

	// Offset is the byte offset within the element. NewLayout computes it.
	Offset int
}

// Components returns the number of components stored by the field.
func (f Field) Components() int {
	info, ok := lookupFormat(f.Format)
	if !ok {
		return 0
	}
	return info.n
}

// Layout describes the packed fields of a structured element.
// The zero Layout has no fields and a stride of 0.
type Layout struct {
	fields []Field
	stride int
}

// NewLayout packs fields in declaration order and computes their offsets.
// It panics on a duplicate semantic or a format without a known size.
func NewLayout(fields ...Field) Layout {
	l := Layout{fields: make([]Field, len(fields))}
	for i, f := range fields {
		size := int(f.Format.Size())
		if size == 0 {
			panic(fmt.Sprintf("buffer: field %v has unsupported format %v", f.Semantic, f.Format))
		}
		for _, prev := range l.fields[:i] {
			if prev.Semantic == f.Semantic {
				panic(fmt.Sprintf("buffer: duplicate semantic %v in layout", f.Semantic))
			}
		}
		f.Offset = l.stride
		l.fields[i] = f
		l.stride += size
	}
	return l
}

// Stride returns the packed byte size of one element.
func (l Layout) Stride() int {
	return l.stride
}

// Fields returns a copy of the layout fields.
func (l Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Has reports whether the layout declares the semantic.
func (l Layout) Has(s Semantic) bool {
	_, ok := l.Field(s)
	return ok
}

// Field returns the field declared for the semantic.
func (l Layout) Field(s Semantic) (Field, bool) {
	for _, f := range l.fields {
		if f.Semantic == s {
			return f, true
		}
	}
	return Field{}, false
}

// VertexBufferLayout converts the layout for pipeline creation. Shader
// locations follow field order.
func (l Layout) VertexBufferLayout(step gputypes.VertexStepMode) gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.fields))
	for i, f := range l.fields {
		attrs[i] = gputypes.VertexAttribute{
			Format:         f.Format,
			Offset:         uint64(f.Offset), //nolint:gosec // offsets are non-negative sums of format sizes
			ShaderLocation: uint32(i),        //nolint:gosec // bounded by field count
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.stride), //nolint:gosec // non-negative
		StepMode:    step,
		Attributes:  attrs,
	}
}
