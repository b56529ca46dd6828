// Package uniform packs tagged shader parameters into std140 uniform blocks.
package uniform

import (
	"fmt"

	"golang.org/x/image/math/f32"
)

// Kind tags the type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFloat
	KindInt
	KindUint
	KindVec2
	KindVec3
	KindVec4
	KindMat4
)

// String returns the WGSL spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "f32"
	case KindInt:
		return "i32"
	case KindUint:
		return "u32"
	case KindVec2:
		return "vec2<f32>"
	case KindVec3:
		return "vec3<f32>"
	case KindVec4:
		return "vec4<f32>"
	case KindMat4:
		return "mat4x4<f32>"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// align and size return the std140 alignment and size in bytes.
func (k Kind) align() int {
	switch k {
	case KindVec2:
		return 8
	case KindVec3, KindVec4, KindMat4:
		return 16
	default:
		return 4
	}
}

func (k Kind) size() int {
	switch k {
	case KindVec2:
		return 8
	case KindVec3:
		return 12
	case KindVec4:
		return 16
	case KindMat4:
		return 64
	default:
		return 4
	}
}

// Value is one tagged shader parameter. The zero Value is invalid.
type Value struct {
	kind Kind
	f    f32.Mat4 // float payloads, row-major for matrices
	i    int32
	u    uint32
}

func Float(v float32) Value { return Value{kind: KindFloat, f: f32.Mat4{v}} }
func Int(v int32) Value     { return Value{kind: KindInt, i: v} }
func Uint(v uint32) Value   { return Value{kind: KindUint, u: v} }

func Vec2(v f32.Vec2) Value { return Value{kind: KindVec2, f: f32.Mat4{v[0], v[1]}} }
func Vec3(v f32.Vec3) Value { return Value{kind: KindVec3, f: f32.Mat4{v[0], v[1], v[2]}} }
func Vec4(v f32.Vec4) Value { return Value{kind: KindVec4, f: f32.Mat4{v[0], v[1], v[2], v[3]}} }

// Mat4 holds a row-major matrix.
func Mat4(m f32.Mat4) Value { return Value{kind: KindMat4, f: m} }

// Kind returns the tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) must(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("uniform: value is %s, not %s", v.kind, k))
	}
}

// AsFloat returns the payload of a KindFloat value; other kinds panic.
func (v Value) AsFloat() float32 { v.must(KindFloat); return v.f[0] }

// AsInt returns the payload of a KindInt value; other kinds panic.
func (v Value) AsInt() int32 { v.must(KindInt); return v.i }

// AsUint returns the payload of a KindUint value; other kinds panic.
func (v Value) AsUint() uint32 { v.must(KindUint); return v.u }

// AsVec2 returns the payload of a KindVec2 value; other kinds panic.
func (v Value) AsVec2() f32.Vec2 { v.must(KindVec2); return f32.Vec2{v.f[0], v.f[1]} }

// AsVec3 returns the payload of a KindVec3 value; other kinds panic.
func (v Value) AsVec3() f32.Vec3 { v.must(KindVec3); return f32.Vec3{v.f[0], v.f[1], v.f[2]} }

// AsVec4 returns the payload of a KindVec4 value; other kinds panic.
func (v Value) AsVec4() f32.Vec4 { v.must(KindVec4); return f32.Vec4{v.f[0], v.f[1], v.f[2], v.f[3]} }

// AsMat4 returns the payload of a KindMat4 value; other kinds panic.
func (v Value) AsMat4() f32.Mat4 { v.must(KindMat4); return v.f }

// String formats the value for logs.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return fmt.Sprintf("f32(%g)", v.f[0])
	case KindInt:
		return fmt.Sprintf("i32(%d)", v.i)
	case KindUint:
		return fmt.Sprintf("u32(%d)", v.u)
	case KindVec2, KindVec3, KindVec4:
		n := v.kind.size() / 4
		return fmt.Sprintf("%s%v", v.kind, v.f[:n])
	case KindMat4:
		return fmt.Sprintf("%s%v", v.kind, v.f)
	default:
		return "invalid"
	}
}
