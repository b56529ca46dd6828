package geometry

import (
	"math"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/gpures/buffer"
)

// clampRange limits [start, end) to the vertex count. A negative end means
// all vertices.
func clampRange(bufs []*buffer.ByteBuffer, start, end int) (int, int) {
	n := VertexCount(bufs)
	if end < 0 || end > n {
		end = n
	}
	return max(start, 0), end
}

// Transform applies m to vertices [start, end). Positions are transformed as
// points, normals by the inverse transpose and renormalized, and tangents
// and bitangents by the upper 3x3 with their w kept. A negative end means
// all vertices.
func Transform(bufs []*buffer.ByteBuffer, m f32.Mat4, start, end int) {
	start, end = clampRange(bufs, start, end)
	pos := Find(bufs, buffer.Position)
	nrm := Find(bufs, buffer.Normal)
	tan := Find(bufs, buffer.Tangent)
	bit := Find(bufs, buffer.Bitangent)
	nm := NormalMatrix(m)

	for i := start; i < end; i++ {
		if pos != nil {
			if p, ok := pos.Attribute(i, buffer.Position); ok {
				pos.SetAttribute(i, buffer.Position, false, vec4(TransformPoint(m, xyz(p)), p[3]))
			}
		}
		if nrm != nil {
			if n, ok := nrm.Attribute(i, buffer.Normal); ok {
				nrm.SetAttribute(i, buffer.Normal, false, vec4(normalize(transformDir(nm, xyz(n))), n[3]))
			}
		}
		for _, tb := range []struct {
			b *buffer.ByteBuffer
			s buffer.Semantic
		}{{tan, buffer.Tangent}, {bit, buffer.Bitangent}} {
			if tb.b == nil {
				continue
			}
			if t, ok := tb.b.Attribute(i, tb.s); ok {
				tb.b.SetAttribute(i, tb.s, false, vec4(normalize(transformDir(m, xyz(t))), t[3]))
			}
		}
	}
}

// Bounds returns the axis-aligned box of the positions of vertices
// [start, end). ok is false when there are no positions in the range.
func Bounds(bufs []*buffer.ByteBuffer, start, end int) (lo, hi f32.Vec3, ok bool) {
	pos := Find(bufs, buffer.Position)
	if pos == nil {
		return lo, hi, false
	}
	start, end = clampRange(bufs, start, end)
	inf := float32(math.Inf(1))
	lo = f32.Vec3{inf, inf, inf}
	hi = f32.Vec3{-inf, -inf, -inf}
	for i := start; i < end; i++ {
		p, found := pos.Attribute(i, buffer.Position)
		if !found {
			continue
		}
		for c := 0; c < 3; c++ {
			lo[c] = min(lo[c], p[c])
			hi[c] = max(hi[c], p[c])
		}
		ok = true
	}
	if !ok {
		return f32.Vec3{}, f32.Vec3{}, false
	}
	return lo, hi, true
}

// Tangents computes per-vertex tangents from triangle list indices using
// positions, normals and TexCoord0. The tangent is orthogonalized against
// the normal and w holds the handedness (+1 or -1). It reports false and
// writes nothing when a required semantic is missing.
func Tangents(indices []uint32, bufs []*buffer.ByteBuffer) bool {
	for _, s := range []buffer.Semantic{buffer.Position, buffer.Normal, buffer.TexCoord0, buffer.Tangent} {
		if !HasAttribute(bufs, s) {
			return false
		}
	}
	n := VertexCount(bufs)
	tan := make([]f32.Vec3, n)
	bitan := make([]f32.Vec3, n)

	read := func(i int, s buffer.Semantic) f32.Vec4 {
		v, _ := Attribute(bufs, i, s)
		return v
	}

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := int(indices[t]), int(indices[t+1]), int(indices[t+2])
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}
		p0, p1, p2 := xyz(read(i0, buffer.Position)), xyz(read(i1, buffer.Position)), xyz(read(i2, buffer.Position))
		w0, w1, w2 := read(i0, buffer.TexCoord0), read(i1, buffer.TexCoord0), read(i2, buffer.TexCoord0)

		e1, e2 := sub(p1, p0), sub(p2, p0)
		du1, dv1 := w1[0]-w0[0], w1[1]-w0[1]
		du2, dv2 := w2[0]-w0[0], w2[1]-w0[1]
		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		r := 1 / det
		sdir := scale(sub(scale(e1, dv2), scale(e2, dv1)), r)
		tdir := scale(sub(scale(e2, du1), scale(e1, du2)), r)
		for _, i := range [3]int{i0, i1, i2} {
			tan[i] = f32.Vec3{tan[i][0] + sdir[0], tan[i][1] + sdir[1], tan[i][2] + sdir[2]}
			bitan[i] = f32.Vec3{bitan[i][0] + tdir[0], bitan[i][1] + tdir[1], bitan[i][2] + tdir[2]}
		}
	}

	for i := 0; i < n; i++ {
		nrm := normalize(xyz(read(i, buffer.Normal)))
		t := normalize(sub(tan[i], scale(nrm, dot(nrm, tan[i]))))
		w := float32(1)
		if dot(cross(nrm, t), bitan[i]) < 0 {
			w = -1
		}
		SetAttribute(bufs, i, buffer.Tangent, false, vec4(t, w))
	}
	return true
}
