package gpures

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/program"
	"github.com/gogpu/gpures/resource"
	"github.com/gogpu/gpures/stream"
	"github.com/gogpu/gpures/uniform"
)

// Context owns everything the buffer layer needs from one device: the
// allocator, the upload queue, frame pacing and deferred deletion. There is
// no package-level device; every object is created from a Context.
//
// Context is safe for concurrent use, but submissions are expected to come
// from a single thread.
type Context struct {
	cfg Config

	// Standalone mode owns instance, adapter and device.
	instance hal.Instance
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue
	info     gpucontext.AdapterInfo
	external bool

	alloc     *resource.Allocator
	uploader  *stream.Uploader
	deletions resource.DeletionQueue

	mu      sync.Mutex
	frames  *resource.PerFrame[uint64] // last submission of each frame slot
	pending []resource.Freer
	caches  []interface{ Close() }

	closed atomic.Bool
}

// Frame describes the frame slot returned by BeginFrame.
type Frame struct {
	// Slot indexes per-frame resources, in [0, FramesInFlight).
	Slot int

	// Number counts frames since the context was created.
	Number uint64

	// Reusable reports whether the GPU finished the last submission made
	// while this slot was current, so its per-frame resources may be rewritten.
	Reusable bool
}

// Stats aggregates the counters of a Context.
type Stats struct {
	Allocator    resource.AllocatorStats
	Uploads      stream.UploadStats
	PendingFrees int
	Frame        uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("%s uploads=%d submissions=%d in-flight=%d pending-frees=%d frame=%d",
		s.Allocator, s.Uploads.Uploads, s.Uploads.Submissions, s.Uploads.InFlight, s.PendingFrees, s.Frame)
}

// Open creates a standalone Context: it selects a backend, enumerates
// adapters preferring a discrete or integrated GPU and opens a device.
// The device is destroyed by Close.
func Open(cfg Config) (*Context, error) {
	cfg = cfg.withDefaults()

	backend, err := selectBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpures: create %s instance: %w", backend.Variant(), err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, backend.Variant())
	}
	selected := pickAdapter(adapters)

	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpures: open device on %q: %w", selected.Info.Name, err)
	}

	c := newContext(cfg, open.Device, open.Queue, adapterInfo(selected.Info), false)
	c.instance = instance
	c.adapter = selected.Adapter

	Logger().Info("gpures: GPU initialized",
		"backend", backend.Variant(),
		"adapter", selected.Info.Name,
		"type", selected.Info.DeviceType)
	return c, nil
}

// FromProvider creates a Context on a device shared by an external provider
// (for example a gogpu window). The provider must expose hal types, either
// through HalDevice() any / HalQueue() any or directly from Device and Queue.
// Close never destroys a shared device.
func FromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Context, error) {
	if provider == nil {
		return nil, ErrProviderNotHAL
	}
	device, queue, err := providerHAL(provider)
	if err != nil {
		return nil, err
	}
	c := newContext(cfg.withDefaults(), device, queue, provider.AdapterInfo(), true)
	Logger().Info("gpures: using shared GPU device",
		"adapter", c.info.Name,
		"type", c.info.Type)
	return c, nil
}

// FromDevice creates a Context on a device owned by the caller.
// Close never destroys it.
func FromDevice(device hal.Device, queue hal.Queue, cfg Config) (*Context, error) {
	if device == nil || queue == nil {
		return nil, ErrProviderNotHAL
	}
	info := gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	return newContext(cfg.withDefaults(), device, queue, info, true), nil
}

func newContext(cfg Config, device hal.Device, queue hal.Queue, info gpucontext.AdapterInfo, external bool) *Context {
	alloc := resource.NewAllocator(device, resource.AllocatorConfig{
		MaxMemoryMB: cfg.MaxMemoryMB,
		Label:       cfg.Label,
	})
	return &Context{
		cfg:      cfg,
		device:   device,
		queue:    queue,
		info:     info,
		external: external,
		alloc:    alloc,
		uploader: stream.NewUploader(alloc, queue, cfg.Label),
		frames:   resource.NewPerFrame(cfg.FramesInFlight, func(int) uint64 { return 0 }),
	}
}

func selectBackend(name string) (hal.Backend, error) {
	variant, auto, err := ParseBackend(name)
	if err != nil {
		return nil, err
	}
	if auto {
		b, err := hal.SelectBestBackend()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
		}
		return b, nil
	}
	b, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s not registered", ErrNoBackend, variant)
	}
	return b, nil
}

// pickAdapter prefers a discrete GPU, then an integrated one, then the first.
func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	var integrated *hal.ExposedAdapter
	for i := range adapters {
		switch adapters[i].Info.DeviceType {
		case gputypes.DeviceTypeDiscreteGPU:
			return &adapters[i]
		case gputypes.DeviceTypeIntegratedGPU:
			if integrated == nil {
				integrated = &adapters[i]
			}
		}
	}
	if integrated != nil {
		return integrated
	}
	return &adapters[0]
}

func adapterInfo(info gputypes.AdapterInfo) gpucontext.AdapterInfo {
	t := gpucontext.AdapterTypeUnknown
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		t = gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterInfo{Name: info.Name, Type: t}
}

func providerHAL(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var dev, q any
	if hp, ok := provider.(halProvider); ok {
		dev, q = hp.HalDevice(), hp.HalQueue()
	} else {
		dev, q = provider.Device(), provider.Queue()
	}
	device, ok := dev.(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: device is %T", ErrProviderNotHAL, dev)
	}
	queue, ok := q.(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: queue is %T", ErrProviderNotHAL, q)
	}
	return device, queue, nil
}

// Config returns the effective configuration.
func (c *Context) Config() Config { return c.cfg }

// Device returns the hal device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the hal queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// AdapterInfo returns the name and type of the adapter in use.
func (c *Context) AdapterInfo() gpucontext.AdapterInfo { return c.info }

// External reports whether the device is owned by someone else.
func (c *Context) External() bool { return c.external }

// Allocator returns the allocator every device object is created with.
func (c *Context) Allocator() *resource.Allocator { return c.alloc }

// Uploader returns the upload queue that vertex and index views use.
func (c *Context) Uploader() *stream.Uploader { return c.uploader }

// FramesInFlight returns the number of per-frame slots.
func (c *Context) FramesInFlight() int { return c.frames.Len() }

// BeginFrame advances to the next frame slot. It releases upload holds and
// frees deferred resources whose submissions completed. It never blocks.
func (c *Context) BeginFrame() (Frame, error) {
	if c.closed.Load() {
		return Frame{}, ErrClosed
	}
	c.uploader.Poll()
	completed := c.queue.PollCompleted()
	freed := c.deletions.Collect(completed)

	c.mu.Lock()
	last := *c.frames.Advance()
	f := Frame{
		Slot:     c.frames.Index(),
		Number:   c.frames.Frame(),
		Reusable: last <= completed,
	}
	c.mu.Unlock()

	if freed > 0 {
		Logger().Debug("gpures: deferred resources freed", "count", freed, "completed", completed)
	}
	return f, nil
}

// EndFrame submits queued uploads and cmds together, uploads first, so draws
// see the uploaded data. The context takes ownership of cmds and returns them
// to the pool once the submission completes. Device buffers retired during
// the frame and resources passed to DeferFree are freed after the same
// submission.
//
// It returns the submission index of the frame.
func (c *Context) EndFrame(cmds ...hal.CommandBuffer) (uint64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range pending {
		c.uploader.Retire(f)
	}

	idx, err := c.uploader.Submit(cmds...)
	if err != nil {
		return 0, fmt.Errorf("gpures: end frame: %w", err)
	}
	for _, cmd := range cmds {
		h := resource.NewHandle(cmd, c.device.FreeCommandBuffer)
		c.deletions.Defer(idx, &h)
	}

	c.mu.Lock()
	*c.frames.Current() = idx
	c.mu.Unlock()
	return idx, nil
}

// DeferFree frees f once the GPU has finished the submission made by the
// next EndFrame. On a closed context f is freed immediately.
func (c *Context) DeferFree(f resource.Freer) {
	if f == nil {
		return
	}
	if c.closed.Load() {
		f.Free()
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, f)
	c.mu.Unlock()
}

// ModuleCache returns a permutation cache of shader modules built from the
// WGSL returned by source. The cache is closed with the context.
func (c *Context) ModuleCache(label string, source func(program.Mask) string) *program.Cache[resource.ShaderModule] {
	mc := program.NewModuleCache(c.alloc, label, source, c.cfg.ProgramCacheSize)
	c.mu.Lock()
	c.caches = append(c.caches, mc)
	c.mu.Unlock()
	return mc
}

// UniformBuffer allocates a device buffer sized for block, usable as a
// uniform binding and as the destination of uniform.Block.Upload.
func (c *Context) UniformBuffer(block *uniform.Block) (resource.Buffer, error) {
	return c.alloc.CreateBuffer(block.Name(), uint64(block.Size()),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
}

// Stats returns a snapshot of the context counters.
func (c *Context) Stats() Stats {
	c.mu.Lock()
	frame := c.frames.Frame()
	pending := len(c.pending)
	c.mu.Unlock()
	uploads := c.uploader.Stats()
	return Stats{
		Allocator:    c.alloc.Stats(),
		Uploads:      uploads,
		PendingFrees: pending + uploads.Retiring + c.deletions.Len(),
		Frame:        frame,
	}
}

// Close waits for the device to go idle, releases every hold and deferred
// resource, closes program caches and the allocator, then destroys the
// device unless it is shared. Close is idempotent.
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.uploader.Close()

	c.mu.Lock()
	caches, pending := c.caches, c.pending
	c.caches, c.pending = nil, nil
	c.mu.Unlock()

	for _, mc := range caches {
		mc.Close()
	}
	for _, f := range pending {
		f.Free()
	}
	c.deletions.Flush()
	c.alloc.Close()

	if !c.external {
		c.device.Destroy()
		if c.adapter != nil {
			c.adapter.Destroy()
		}
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	Logger().Info("gpures: context closed", "label", c.cfg.Label, "external", c.external)
	return err
}
