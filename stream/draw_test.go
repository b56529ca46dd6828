package stream

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

type recordingPass struct {
	noop.RenderPassEncoder
	vertexBinds   int
	vertexOffsets []uint64
	indexFormat   gputypes.IndexFormat
	draws         int
	lastDraw      [4]uint32
	lastIndexed   [3]uint32
}

func (p *recordingPass) SetVertexBuffer(_ uint32, _ hal.Buffer, offset uint64) {
	p.vertexBinds++
	p.vertexOffsets = append(p.vertexOffsets, offset)
}

func (p *recordingPass) SetIndexBuffer(_ hal.Buffer, f gputypes.IndexFormat, _ uint64) {
	p.indexFormat = f
}

func (p *recordingPass) Draw(count, instances, first, firstInstance uint32) {
	p.draws++
	p.lastDraw = [4]uint32{count, instances, first, firstInstance}
}

func (p *recordingPass) DrawIndexed(count, instances, first uint32, _ int32, _ uint32) {
	p.draws++
	p.lastIndexed = [3]uint32{count, instances, first}
}

func TestDrawIndexed(t *testing.T) {
	up, _, _ := newTestUploader(t)
	vv := NewVertexViewCount(up, positions, 10, Static)
	vv.SetRange(4, 6)
	iv := NewIndexViewCount(up, 2, 12, Static)
	iv.SetRange(3, 6)

	pass := &recordingPass{}
	req := DrawRequest{Index: iv, Vertices: []*VertexView{vv}}
	if !req.Draw(pass, 2) {
		t.Fatal("Draw reported nothing drawn")
	}
	if pass.vertexOffsets[0] != 4*12 {
		t.Errorf("vertex offset = %d, want %d", pass.vertexOffsets[0], 4*12)
	}
	if pass.indexFormat != gputypes.IndexFormatUint16 {
		t.Errorf("index format = %v", pass.indexFormat)
	}
	if pass.lastIndexed != [3]uint32{6, 2, 3} {
		t.Errorf("DrawIndexed args = %v", pass.lastIndexed)
	}
}

func TestDrawNonIndexed(t *testing.T) {
	up, _, _ := newTestUploader(t)
	vv := NewVertexViewCount(up, positions, 3, Static)

	pass := &recordingPass{}
	if !(DrawRequest{Vertices: []*VertexView{vv}, FirstInstance: 1}).Draw(pass, 1) {
		t.Fatal("Draw reported nothing drawn")
	}
	if pass.lastDraw != [4]uint32{3, 1, 0, 1} {
		t.Errorf("Draw args = %v", pass.lastDraw)
	}

	empty := NewVertexViewCount(up, positions, 3, Static)
	empty.SetRange(0, 0)
	if (DrawRequest{Vertices: []*VertexView{empty}}).Draw(pass, 1) {
		t.Error("empty range should draw nothing")
	}
	if (DrawRequest{}).Draw(pass, 1) {
		t.Error("request without vertices should draw nothing")
	}
}
