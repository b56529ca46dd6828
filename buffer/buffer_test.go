package buffer

import (
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
)

type vec3 struct{ X, Y, Z float32 }

func positionLayout() Layout {
	return NewLayout(Field{Semantic: Position, Format: gputypes.VertexFormatFloat32x3})
}

func expectPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic: %s", what)
		}
	}()
	fn()
}

func TestDescriptorStride(t *testing.T) {
	layout := NewLayout(
		Field{Semantic: Position, Format: gputypes.VertexFormatFloat32x3},
		Field{Semantic: Normal, Format: gputypes.VertexFormatFloat32x3},
		Field{Semantic: TexCoord0, Format: gputypes.VertexFormatFloat32x2},
		Field{Semantic: Color0, Format: gputypes.VertexFormatUnorm8x4},
	)

	tests := []struct {
		name   string
		desc   Descriptor
		stride int
	}{
		{"fixed16", NewFixedWidthIndex(3, 2), 2},
		{"fixed32", NewFixedWidthIndex(3, 4), 4},
		{"structured", NewStructured(layout, 5), 12 + 12 + 8 + 4},
		{"unknown", Descriptor{count: 10}, 0},
		{"empty layout", NewStructured(Layout{}, 4), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.desc.Stride(); got != tt.stride {
				t.Errorf("Stride() = %d, want %d", got, tt.stride)
			}
			b := New(tt.desc)
			if got, want := b.NumBytes(), tt.stride*tt.desc.Count(); got != want {
				t.Errorf("NumBytes() = %d, want %d", got, want)
			}
			if b.IsEmpty() != (tt.stride == 0) {
				t.Errorf("IsEmpty() = %v with stride %d", b.IsEmpty(), tt.stride)
			}
		})
	}

	if !New(NewFixedWidthIndex(0, 2)).IsEmpty() {
		t.Error("zero element count should produce an empty buffer")
	}
}

func TestLayoutOffsets(t *testing.T) {
	layout := NewLayout(
		Field{Semantic: Position, Format: gputypes.VertexFormatFloat32x3},
		Field{Semantic: Color0, Format: gputypes.VertexFormatUnorm8x4},
		Field{Semantic: TexCoord0, Format: gputypes.VertexFormatFloat16x2},
	)
	wantOffsets := []int{0, 12, 16}
	for i, f := range layout.Fields() {
		if f.Offset != wantOffsets[i] {
			t.Errorf("field %v offset = %d, want %d", f.Semantic, f.Offset, wantOffsets[i])
		}
	}
	vbl := layout.VertexBufferLayout(gputypes.VertexStepModeVertex)
	if vbl.ArrayStride != 20 || len(vbl.Attributes) != 3 {
		t.Fatalf("VertexBufferLayout = %+v", vbl)
	}
	if vbl.Attributes[2].ShaderLocation != 2 || vbl.Attributes[2].Offset != 16 {
		t.Errorf("attribute 2 = %+v", vbl.Attributes[2])
	}

	expectPanic(t, "duplicate semantic", func() {
		NewLayout(
			Field{Semantic: Position, Format: gputypes.VertexFormatFloat32x3},
			Field{Semantic: Position, Format: gputypes.VertexFormatFloat32x2},
		)
	})
	expectPanic(t, "undefined format", func() {
		NewLayout(Field{Semantic: Normal})
	})
}

func TestSetElementRange(t *testing.T) {
	b := New(NewStructured(positionLayout(), 4))
	if b.NumBytes() != 48 {
		t.Fatalf("NumBytes() = %d, want 48", b.NumBytes())
	}
	orig0 := vec3{9, 9, 9}
	orig3 := vec3{7, 7, 7}
	SetElement(b, 0, orig0)
	SetElement(b, 3, orig3)

	SetElementRange(b, 1, []vec3{{1, 2, 3}, {4, 5, 6}})

	want := []vec3{orig0, {1, 2, 3}, {4, 5, 6}, orig3}
	got := Elements[vec3](b)
	if len(got) != len(want) {
		t.Fatalf("len(Elements) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestElementMisuse(t *testing.T) {
	b := New(NewStructured(positionLayout(), 2))

	expectPanic(t, "stride mismatch", func() { _ = Elements[[2]float32](b) })
	expectPanic(t, "write past end", func() { SetElement(b, 2, vec3{}) })
	expectPanic(t, "range past end", func() { SetElementRange(b, 1, []vec3{{}, {}}) })

	// Empty input never touches the buffer.
	SetElementRange[vec3](b, 5, nil)
}

func TestEmptyBufferElements(t *testing.T) {
	b := New(NewStructured(positionLayout(), 0))
	if got := Elements[vec3](b); got != nil {
		t.Errorf("Elements on empty buffer = %v, want nil", got)
	}
}

func TestAppendFixedWidth16Truncates(t *testing.T) {
	b := New(NewFixedWidthIndex(0, 2))
	b.Append(10)
	b.Append(70000)

	if n := b.NumElements(); n != 2 {
		t.Fatalf("NumElements() = %d, want 2", n)
	}
	if got := b.Index(0); got != 10 {
		t.Errorf("Index(0) = %d, want 10", got)
	}
	if got, want := b.Index(1), uint32(70000%65536); got != want {
		t.Errorf("Index(1) = %d, want %d", got, want)
	}
	if b.Descriptor().Count() != 2 {
		t.Errorf("Descriptor().Count() = %d, want 2", b.Descriptor().Count())
	}
}

func TestIndexHelpers(t *testing.T) {
	b := New(NewFixedWidthIndex(3, 4))
	b.SetIndexRange(0, []uint32{1, 2, 70000})
	AppendIndices(b, uint8(4), uint8(5))

	want := []uint32{1, 2, 70000, 4, 5}
	got := b.Indices()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d = %d, want %d", i, got[i], want[i])
		}
	}
	if u32 := Elements[uint32](b); u32[2] != 70000 {
		t.Errorf("typed view = %v", u32)
	}

	expectPanic(t, "set index past end", func() { b.SetIndex(5, 0) })
	expectPanic(t, "index access on structured buffer", func() {
		New(NewStructured(positionLayout(), 1)).Append(1)
	})
}

func TestResizeAndReserve(t *testing.T) {
	b := New(NewStructured(positionLayout(), 2))
	SetElement(b, 1, vec3{1, 1, 1})

	b.Reserve(8)
	if b.NumElements() != 2 {
		t.Fatalf("Reserve changed element count to %d", b.NumElements())
	}
	b.Resize(1)
	b.Resize(3)
	got := Elements[vec3](b)
	if got[1] != (vec3{}) || got[2] != (vec3{}) {
		t.Errorf("grown elements not zeroed: %v", got)
	}
}

func TestTakeMovesPayload(t *testing.T) {
	b := New(NewStructured(positionLayout(), 2))
	SetElement(b, 0, vec3{1, 2, 3})

	moved := b.Take()
	if !b.IsEmpty() {
		t.Error("source should be empty after Take")
	}
	if moved.NumElements() != 2 {
		t.Fatalf("moved NumElements() = %d, want 2", moved.NumElements())
	}
	if Elements[vec3](moved)[0] != (vec3{1, 2, 3}) {
		t.Error("moved payload lost data")
	}
}

func TestCopyByValuePanics(t *testing.T) {
	b := New(NewFixedWidthIndex(2, 2))
	expectPanic(t, "copied ByteBuffer", func() { useCopy(b) })
}

// useCopy duplicates b through unsafe to avoid the copylocks vet check.
func useCopy(b *ByteBuffer) {
	var dup ByteBuffer
	src := unsafe.Slice((*byte)(unsafe.Pointer(b)), unsafe.Sizeof(*b))
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&dup)), unsafe.Sizeof(dup))
	copy(dst, src)
	_ = dup.NumBytes()
}
