package geometry

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Identity is the identity matrix.
var Identity = f32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) f32.Mat4 {
	m := Identity
	m[3], m[7], m[11] = x, y, z
	return m
}

// Scale returns a scaling matrix.
func Scale(x, y, z float32) f32.Mat4 {
	m := Identity
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotateZ returns a rotation of angle radians about the Z axis.
func RotateZ(angle float32) f32.Mat4 {
	s, c := math.Sincos(float64(angle))
	m := Identity
	m[0], m[1] = float32(c), float32(-s)
	m[4], m[5] = float32(s), float32(c)
	return m
}

// Mul returns a*b.
func Mul(a, b f32.Mat4) f32.Mat4 {
	var m f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[r*4+k] * b[k*4+c]
			}
			m[r*4+c] = sum
		}
	}
	return m
}

// TransformPoint applies m to the point p (w = 1).
func TransformPoint(m f32.Mat4, p f32.Vec3) f32.Vec3 {
	return f32.Vec3{
		m[0]*p[0] + m[1]*p[1] + m[2]*p[2] + m[3],
		m[4]*p[0] + m[5]*p[1] + m[6]*p[2] + m[7],
		m[8]*p[0] + m[9]*p[1] + m[10]*p[2] + m[11],
	}
}

// transformDir applies the upper 3x3 of m to d.
func transformDir(m f32.Mat4, d f32.Vec3) f32.Vec3 {
	return f32.Vec3{
		m[0]*d[0] + m[1]*d[1] + m[2]*d[2],
		m[4]*d[0] + m[5]*d[1] + m[6]*d[2],
		m[8]*d[0] + m[9]*d[1] + m[10]*d[2],
	}
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of m in the
// upper 3x3 of the result. A singular m yields m's upper 3x3 unchanged.
func NormalMatrix(m f32.Mat4) f32.Mat4 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[4], m[5], m[6]
	g, h, i := m[8], m[9], m[10]

	// Cofactors. The inverse transpose is the cofactor matrix over det.
	ca, cb, cc := e*i-f*h, -(d*i - f*g), d*h-e*g
	cd, ce, cf := -(b*i - c*h), a*i-c*g, -(a*h - b*g)
	cg, ch, ci := b*f-c*e, -(a*f - c*d), a*e-b*d

	det := a*ca + b*cb + c*cc
	if det == 0 {
		n := Identity
		copy(n[0:3], m[0:3])
		copy(n[4:7], m[4:7])
		copy(n[8:11], m[8:11])
		return n
	}
	inv := 1 / det
	return f32.Mat4{
		ca * inv, cb * inv, cc * inv, 0,
		cd * inv, ce * inv, cf * inv, 0,
		cg * inv, ch * inv, ci * inv, 0,
		0, 0, 0, 1,
	}
}

func dot(a, b f32.Vec3) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func sub(a, b f32.Vec3) f32.Vec3 { return f32.Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func scale(a f32.Vec3, s float32) f32.Vec3 { return f32.Vec3{a[0] * s, a[1] * s, a[2] * s} }

func cross(a, b f32.Vec3) f32.Vec3 {
	return f32.Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(a f32.Vec3) f32.Vec3 {
	l := float32(math.Sqrt(float64(dot(a, a))))
	if l == 0 {
		return a
	}
	return scale(a, 1/l)
}

func xyz(v f32.Vec4) f32.Vec3 { return f32.Vec3{v[0], v[1], v[2]} }

func vec4(v f32.Vec3, w float32) f32.Vec4 { return f32.Vec4{v[0], v[1], v[2], w} }
