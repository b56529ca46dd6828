package resource

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// countingDevice records destroy calls and can be told to reject buffers.
type countingDevice struct {
	noop.Device
	destroyedBuffers  int
	destroyedTextures int
	destroyedOther    int
	failBuffers       bool
	labels            []string
}

var errDeviceLost = errors.New("device lost")

func (d *countingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.labels = append(d.labels, desc.Label)
	if d.failBuffers {
		return nil, errDeviceLost
	}
	return d.Device.CreateBuffer(desc)
}

func (d *countingDevice) DestroyBuffer(hal.Buffer)           { d.destroyedBuffers++ }
func (d *countingDevice) DestroyTexture(hal.Texture)         { d.destroyedTextures++ }
func (d *countingDevice) DestroySampler(hal.Sampler)         { d.destroyedOther++ }
func (d *countingDevice) DestroyTextureView(hal.TextureView) { d.destroyedOther++ }
func (d *countingDevice) DestroyShaderModule(hal.ShaderModule) {
	d.destroyedOther++
}

func TestHandleFreeIdempotent(t *testing.T) {
	released := 0
	h := NewHandle(42, func(int) { released++ })
	if !h.IsValid() || h.Get() != 42 {
		t.Fatalf("new handle: valid=%v value=%d", h.IsValid(), h.Get())
	}

	h.Free()
	h.Free()
	if released != 1 {
		t.Errorf("release ran %d times, want 1", released)
	}
	if h.IsValid() {
		t.Error("handle still valid after Free")
	}

	var zero Handle[int]
	zero.Free()
}

func TestHandleTake(t *testing.T) {
	released := 0
	h := NewHandle("tex", func(string) { released++ })
	moved := h.Take()

	h.Free()
	if released != 0 {
		t.Fatal("freeing a moved-from handle released the object")
	}
	if !moved.IsValid() || moved.Get() != "tex" {
		t.Fatal("moved handle lost ownership")
	}
	moved.Free()
	if released != 1 {
		t.Errorf("release ran %d times, want 1", released)
	}
}

func TestBufferTakeMovesOwnership(t *testing.T) {
	dev := &countingDevice{}
	a := NewAllocator(dev, AllocatorConfig{})
	b, err := a.CreateBuffer("moved", 64, gputypes.BufferUsageVertex)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	moved := b.Take()
	if b.IsValid() || b.Size() != 0 || b.Usage() != 0 {
		t.Errorf("moved-from buffer: valid=%v size=%d usage=%v", b.IsValid(), b.Size(), b.Usage())
	}
	if !moved.IsValid() || moved.Size() != 64 || moved.Usage() != gputypes.BufferUsageVertex {
		t.Errorf("moved buffer: valid=%v size=%d usage=%v", moved.IsValid(), moved.Size(), moved.Usage())
	}

	b.Free()
	if dev.destroyedBuffers != 0 {
		t.Fatal("freeing the moved-from buffer destroyed the device buffer")
	}
	moved.Free()
	moved.Free()
	if dev.destroyedBuffers != 1 {
		t.Errorf("DestroyBuffer called %d times, want 1", dev.destroyedBuffers)
	}
}

func TestAllocatorBufferLifecycle(t *testing.T) {
	dev := &countingDevice{}
	a := NewAllocator(dev, AllocatorConfig{MaxMemoryMB: 16, Label: "test"})

	buf, err := a.CreateBuffer("", 1024, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if !strings.HasPrefix(dev.labels[0], "test-buffer-") {
		t.Errorf("generated label = %q", dev.labels[0])
	}
	if got := a.Stats().UsedBytes; got != 1024 {
		t.Errorf("UsedBytes = %d, want 1024", got)
	}

	buf.Free()
	buf.Free()
	if dev.destroyedBuffers != 1 {
		t.Errorf("DestroyBuffer called %d times, want 1", dev.destroyedBuffers)
	}
	if s := a.Stats(); s.UsedBytes != 0 || s.Buffers != 0 {
		t.Errorf("stats after free = %+v", s)
	}
	if buf.Size() != 0 {
		t.Errorf("Size() of freed buffer = %d", buf.Size())
	}
}

func TestAllocatorFailures(t *testing.T) {
	dev := &countingDevice{}
	a := NewAllocator(dev, AllocatorConfig{MaxMemoryMB: MinMemoryMB})

	buf, err := a.CreateBuffer("huge", 17*1024*1024, gputypes.BufferUsageVertex)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
	if buf.IsValid() {
		t.Error("over-budget buffer should be invalid")
	}
	buf.Free()

	dev.failBuffers = true
	buf, err = a.CreateBuffer("lost", 16, gputypes.BufferUsageVertex)
	if !errors.Is(err, ErrAllocationFailed) || !errors.Is(err, errDeviceLost) {
		t.Fatalf("err = %v, want ErrAllocationFailed wrapping device error", err)
	}
	if buf.IsValid() {
		t.Error("failed buffer should be invalid")
	}
	if s := a.Stats(); s.UsedBytes != 0 || s.Failed != 2 {
		t.Errorf("stats = %+v", s)
	}
	if dev.destroyedBuffers != 0 {
		t.Errorf("DestroyBuffer called %d times for failed allocations", dev.destroyedBuffers)
	}

	a.Close()
	dev.failBuffers = false
	if _, err := a.CreateBuffer("", 16, gputypes.BufferUsageVertex); !errors.Is(err, ErrAllocatorClosed) {
		t.Errorf("err after Close = %v", err)
	}
}

func TestAllocatorTextureAndView(t *testing.T) {
	dev := &countingDevice{}
	a := NewAllocator(dev, AllocatorConfig{})

	tex, err := a.CreateTexture(hal.TextureDescriptor{
		Size:   hal.Extent3D{Width: 64, Height: 64, DepthOrArrayLayers: 1},
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if got := a.Stats().UsedBytes; got != 64*64*4 {
		t.Errorf("UsedBytes = %d, want %d", got, 64*64*4)
	}
	if d := tex.Descriptor(); d.MipLevelCount != 1 || d.SampleCount != 1 || d.Label == "" {
		t.Errorf("defaults not applied: %+v", d)
	}

	view, err := a.CreateTextureView(&tex, hal.TextureViewDescriptor{})
	if err != nil {
		t.Fatalf("CreateTextureView: %v", err)
	}
	view.Free()
	tex.Free()
	tex.Free()
	if dev.destroyedTextures != 1 || dev.destroyedOther != 1 {
		t.Errorf("destroyed textures=%d other=%d", dev.destroyedTextures, dev.destroyedOther)
	}

	if _, err := a.CreateTextureView(&tex, hal.TextureViewDescriptor{}); err == nil {
		t.Error("view of freed texture should fail")
	}
}

func TestTextureSizeMipChain(t *testing.T) {
	desc := hal.TextureDescriptor{
		Size:          hal.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		Format:        gputypes.TextureFormatR8Unorm,
		MipLevelCount: 3,
	}
	if got := TextureSize(desc); got != 16+4+1 {
		t.Errorf("TextureSize = %d, want 21", got)
	}
}

func TestPerFrame(t *testing.T) {
	p := NewPerFrame(3, func(i int) int { return i * 10 })
	if *p.Current() != 0 {
		t.Errorf("Current() = %d, want 0", *p.Current())
	}
	p.Advance()
	p.Advance()
	if got := *p.Advance(); got != 0 {
		t.Errorf("after wrap Current() = %d, want 0", got)
	}
	if p.Frame() != 3 {
		t.Errorf("Frame() = %d, want 3", p.Frame())
	}
	sum := 0
	p.Each(func(_ int, v *int) { sum += *v })
	if sum != 30 {
		t.Errorf("sum = %d, want 30", sum)
	}
}

func TestDeletionQueue(t *testing.T) {
	var order []int
	mk := func(id int) *Handle[int] {
		h := NewHandle(id, func(v int) { order = append(order, v) })
		return &h
	}

	var q DeletionQueue
	q.Defer(3, mk(3))
	q.Defer(1, mk(1))
	q.Defer(2, mk(2))
	q.Defer(5, nil)

	if n := q.Collect(0); n != 0 {
		t.Errorf("Collect(0) freed %d", n)
	}
	if n := q.Collect(2); n != 2 {
		t.Errorf("Collect(2) freed %d, want 2", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("free order = %v", order)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	q.Flush()
	if len(order) != 3 || q.Len() != 0 {
		t.Errorf("after Flush order=%v len=%d", order, q.Len())
	}
}
