package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/google/uuid"

	"github.com/gogpu/gpures/internal/logging"
)

// Allocation errors.
var (
	// ErrBudgetExceeded is returned when an allocation would exceed the budget.
	ErrBudgetExceeded = errors.New("resource: memory budget exceeded")

	// ErrAllocationFailed is returned when the device rejects an allocation.
	ErrAllocationFailed = errors.New("resource: allocation failed")

	// ErrAllocatorClosed is returned when allocating from a closed allocator.
	ErrAllocatorClosed = errors.New("resource: allocator closed")
)

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default device memory budget (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the smallest accepted budget (16 MB).
	MinMemoryMB = 16
)

// AllocatorConfig configures an Allocator.
type AllocatorConfig struct {
	// MaxMemoryMB is the budget for buffers and textures in megabytes.
	// Values below MinMemoryMB select DefaultMaxMemoryMB.
	MaxMemoryMB int

	// Label prefixes generated debug labels.
	Label string
}

// AllocatorStats reports current allocator usage.
type AllocatorStats struct {
	BudgetBytes  uint64
	UsedBytes    uint64
	Buffers      int
	Textures     int
	Failed       uint64
	Utilization  float64
	OtherObjects int
}

// String returns a human-readable summary.
func (s AllocatorStats) String() string {
	return fmt.Sprintf("Allocator[%.1f%% used, %d/%d MB, %d buffers, %d textures, %d failed]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.BudgetBytes/(1024*1024),
		s.Buffers,
		s.Textures,
		s.Failed)
}

// Allocator creates device objects and accounts buffer and texture memory
// against a fixed budget. Memory is returned to the budget when the owning
// handle is freed.
//
// Allocator is safe for concurrent use.
type Allocator struct {
	device hal.Device
	prefix string

	mu       sync.Mutex
	budget   uint64
	used     uint64
	buffers  int
	textures int
	others   int
	failed   uint64
	closed   bool
}

// NewAllocator returns an allocator creating objects on device.
func NewAllocator(device hal.Device, cfg AllocatorConfig) *Allocator {
	if device == nil {
		panic("resource: NewAllocator called with nil device")
	}
	maxMB := cfg.MaxMemoryMB
	if maxMB < MinMemoryMB {
		maxMB = DefaultMaxMemoryMB
	}
	prefix := cfg.Label
	if prefix == "" {
		prefix = "gpures"
	}
	//nolint:gosec // G115: maxMB is bounded below by MinMemoryMB
	return &Allocator{
		device: device,
		prefix: prefix,
		budget: uint64(maxMB) * 1024 * 1024,
	}
}

// Device returns the device objects are created on.
func (a *Allocator) Device() hal.Device {
	return a.device
}

// label returns name, or a unique generated label when name is empty.
func (a *Allocator) label(kind, name string) string {
	if name != "" {
		return name
	}
	return a.prefix + "-" + kind + "-" + uuid.New().String()
}

// reserve accounts size bytes, failing when over budget or closed.
func (a *Allocator) reserve(size uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAllocatorClosed
	}
	if a.used+size > a.budget {
		a.failed++
		return fmt.Errorf("%w: need %d bytes, %d of %d in use",
			ErrBudgetExceeded, size, a.used, a.budget)
	}
	a.used += size
	return nil
}

func (a *Allocator) unreserve(size uint64) {
	a.mu.Lock()
	a.used -= size
	a.mu.Unlock()
}

func (a *Allocator) count(delta *int, n int) {
	a.mu.Lock()
	*delta += n
	a.mu.Unlock()
}

func (a *Allocator) fail(kind, label string, err error) error {
	a.mu.Lock()
	a.failed++
	a.mu.Unlock()
	logging.L().Warn("resource: allocation failed", "kind", kind, "label", label, "err", err)
	return fmt.Errorf("%w: %s %q: %w", ErrAllocationFailed, kind, label, err)
}

// CreateBuffer allocates a device buffer of size bytes.
// On failure the returned Buffer is invalid.
func (a *Allocator) CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (Buffer, error) {
	label = a.label("buffer", label)
	if err := a.reserve(size); err != nil {
		logging.L().Warn("resource: buffer over budget", "label", label, "size", size, "err", err)
		return Buffer{}, err
	}
	raw, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		a.unreserve(size)
		return Buffer{}, a.fail("buffer", label, err)
	}
	a.count(&a.buffers, 1)
	logging.L().Debug("resource: buffer created", "label", label, "size", size)
	return Buffer{
		Handle: NewHandle(raw, func(b hal.Buffer) {
			a.device.DestroyBuffer(b)
			a.unreserve(size)
			a.count(&a.buffers, -1)
		}),
		size:  size,
		usage: usage,
	}, nil
}

// CreateTexture allocates a texture. An empty desc.Label is replaced with a
// generated one; zero mip level and sample counts default to 1.
func (a *Allocator) CreateTexture(desc hal.TextureDescriptor) (Texture, error) {
	desc.Label = a.label("texture", desc.Label)
	if desc.MipLevelCount == 0 {
		desc.MipLevelCount = 1
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	if desc.Dimension == gputypes.TextureDimensionUndefined {
		desc.Dimension = gputypes.TextureDimension2D
	}
	size := TextureSize(desc)
	if err := a.reserve(size); err != nil {
		logging.L().Warn("resource: texture over budget", "label", desc.Label, "size", size, "err", err)
		return Texture{}, err
	}
	raw, err := a.device.CreateTexture(&desc)
	if err != nil {
		a.unreserve(size)
		return Texture{}, a.fail("texture", desc.Label, err)
	}
	a.count(&a.textures, 1)
	return Texture{
		Handle: NewHandle(raw, func(t hal.Texture) {
			a.device.DestroyTexture(t)
			a.unreserve(size)
			a.count(&a.textures, -1)
		}),
		desc: desc,
	}, nil
}

// CreateTextureView creates a view of tex. An invalid tex yields an invalid view.
func (a *Allocator) CreateTextureView(tex *Texture, desc hal.TextureViewDescriptor) (TextureView, error) {
	if !tex.IsValid() {
		return TextureView{}, fmt.Errorf("%w: texture view of invalid texture", ErrAllocationFailed)
	}
	desc.Label = a.label("view", desc.Label)
	raw, err := a.device.CreateTextureView(tex.Get(), &desc)
	if err != nil {
		return TextureView{}, a.fail("texture view", desc.Label, err)
	}
	a.count(&a.others, 1)
	return NewHandle(raw, func(v hal.TextureView) {
		a.device.DestroyTextureView(v)
		a.count(&a.others, -1)
	}), nil
}

// CreateSampler creates a sampler.
func (a *Allocator) CreateSampler(desc hal.SamplerDescriptor) (Sampler, error) {
	desc.Label = a.label("sampler", desc.Label)
	raw, err := a.device.CreateSampler(&desc)
	if err != nil {
		return Sampler{}, a.fail("sampler", desc.Label, err)
	}
	a.count(&a.others, 1)
	return NewHandle(raw, func(s hal.Sampler) {
		a.device.DestroySampler(s)
		a.count(&a.others, -1)
	}), nil
}

// CreateBindGroup creates a descriptor set.
func (a *Allocator) CreateBindGroup(desc hal.BindGroupDescriptor) (BindGroup, error) {
	desc.Label = a.label("bindgroup", desc.Label)
	raw, err := a.device.CreateBindGroup(&desc)
	if err != nil {
		return BindGroup{}, a.fail("bind group", desc.Label, err)
	}
	a.count(&a.others, 1)
	return NewHandle(raw, func(g hal.BindGroup) {
		a.device.DestroyBindGroup(g)
		a.count(&a.others, -1)
	}), nil
}

// CreateShaderModule creates a shader module from WGSL source. The device
// does the compilation.
func (a *Allocator) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	label = a.label("shader", label)
	raw, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: wgsl},
	})
	if err != nil {
		return ShaderModule{}, a.fail("shader module", label, err)
	}
	a.count(&a.others, 1)
	return NewHandle(raw, func(m hal.ShaderModule) {
		a.device.DestroyShaderModule(m)
		a.count(&a.others, -1)
	}), nil
}

// Stats returns current usage.
func (a *Allocator) Stats() AllocatorStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	var util float64
	if a.budget > 0 {
		util = float64(a.used) / float64(a.budget)
	}
	return AllocatorStats{
		BudgetBytes:  a.budget,
		UsedBytes:    a.used,
		Buffers:      a.buffers,
		Textures:     a.textures,
		Failed:       a.failed,
		Utilization:  util,
		OtherObjects: a.others,
	}
}

// Close rejects further allocations. Outstanding handles stay valid and
// still return their memory when freed.
func (a *Allocator) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

// TextureSize estimates the memory of a texture including its mip chain.
func TextureSize(desc hal.TextureDescriptor) uint64 {
	texel := uint64(texelSize(desc.Format))
	samples := uint64(max(desc.SampleCount, 1))
	w, h := uint64(max(desc.Size.Width, 1)), uint64(max(desc.Size.Height, 1))
	layers := uint64(max(desc.Size.DepthOrArrayLayers, 1))
	var total uint64
	for range max(desc.MipLevelCount, 1) {
		total += w * h * layers * texel * samples
		w, h = max(w/2, 1), max(h/2, 1)
		if desc.Dimension == gputypes.TextureDimension3D {
			layers = max(layers/2, 1)
		}
	}
	return total
}

// texelSize returns bytes per texel for uncompressed formats and a 4-byte
// estimate for everything else.
func texelSize(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatR16Unorm, gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float, gputypes.TextureFormatRG8Unorm,
		gputypes.TextureFormatRG8Snorm, gputypes.TextureFormatRG8Uint,
		gputypes.TextureFormatRG8Sint, gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint, gputypes.TextureFormatRGBA16Unorm,
		gputypes.TextureFormatRGBA16Snorm, gputypes.TextureFormatRGBA16Uint,
		gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8
	case gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 16
	default:
		return 4
	}
}
