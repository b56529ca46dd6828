package stream

import "github.com/gogpu/wgpu/hal"

// DrawRequest is one draw over an optional index view and one vertex view
// per slot.
type DrawRequest struct {
	Index    *IndexView
	Vertices []*VertexView

	// FirstInstance is passed through to the draw call.
	FirstInstance uint32
}

// Ready reports whether every view of the request has a device buffer and
// there is something to draw.
func (r DrawRequest) Ready() bool {
	if len(r.Vertices) == 0 {
		return false
	}
	for _, v := range r.Vertices {
		if v == nil || !v.IsValid() {
			return false
		}
	}
	if r.Index != nil {
		return r.Index.IsValid() && r.Index.Count() > 0
	}
	return r.Vertices[0].Count() > 0
}

// Draw binds the request's views and records the draw. It records nothing
// and returns false when the request is not Ready.
//
// Vertex buffers are bound at the first vertex of their range, so indices
// are relative to it.
func (r DrawRequest) Draw(pass hal.RenderPassEncoder, instances uint32) bool {
	if !r.Ready() || instances == 0 {
		return false
	}
	for slot, v := range r.Vertices {
		v.Bind(pass, uint32(slot)) //nolint:gosec // slot count is small
	}
	if r.Index != nil {
		r.Index.Bind(pass)
		//nolint:gosec // counts fit in uint32
		pass.DrawIndexed(uint32(r.Index.Count()), instances, uint32(r.Index.Start()), 0, r.FirstInstance)
		return true
	}
	pass.Draw(uint32(r.Vertices[0].Count()), instances, 0, r.FirstInstance) //nolint:gosec // counts fit in uint32
	return true
}
