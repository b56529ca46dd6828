package stream

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/buffer"
	"github.com/gogpu/gpures/internal/logging"
	"github.com/gogpu/gpures/resource"
)

// view is the state shared by vertex and index views.
type view struct {
	up    *Uploader
	weak  buffer.Weak
	owned *buffer.Ref
	mode  AccessMode
	usage gputypes.BufferUsage
	label string

	start, count int
	stride       int
	dev          resource.Buffer
}

// init creates the device buffer and uploads the whole CPU buffer. A dead
// buffer, an empty buffer or a failed allocation leaves the view invalid.
func (v *view) init(up *Uploader, weak buffer.Weak, mode AccessMode, usage gputypes.BufferUsage, label string, start, count int) {
	if up == nil {
		panic("stream: view created without an uploader")
	}
	v.up, v.weak, v.mode, v.usage, v.label = up, weak, mode, usage, label
	v.start, v.count = start, count

	hold := weak.Acquire()
	if hold == nil {
		logging.L().Warn("stream: view over a released buffer", "label", label)
		return
	}
	b := hold.Buffer()
	v.stride = b.Stride()
	if start < 0 || count < 0 || start+count > b.NumElements() {
		hold.Release()
		panic(fmt.Sprintf("stream: range [%d, %d) outside buffer of %d elements", start, start+count, b.NumElements()))
	}
	if b.IsEmpty() {
		hold.Release()
		logging.L().Debug("stream: view over empty buffer", "label", label)
		return
	}
	if !v.allocate(b.NumBytes()) {
		hold.Release()
		return
	}
	v.up.enqueue(hold, b.Bytes(), 0, b.NumBytes(), v.dev.Get(), v.uploadMode())
	if mode != Static {
		v.Update(start, count)
	}
}

// uploadMode maps the view mode to the upload path. Static data goes through
// staging like Dynamic data.
func (v *view) uploadMode() AccessMode {
	if v.mode == Streaming {
		return Streaming
	}
	return Dynamic
}

// allocate replaces the device buffer with one of at least n bytes.
func (v *view) allocate(n int) bool {
	dev, err := v.up.alloc.CreateBuffer(v.label, uint64(alignUp(n)), v.usage|gputypes.BufferUsageCopyDst) //nolint:gosec // n > 0
	if err != nil {
		logging.L().Warn("stream: device buffer unavailable, view is invalid",
			"label", v.label, "mode", v.mode, "bytes", n, "err", err)
		return false
	}
	v.retireDevice()
	v.dev = dev
	return true
}

func (v *view) retireDevice() {
	if !v.dev.IsValid() {
		return
	}
	old := v.dev.Take()
	v.up.Retire(&old)
}

// IsValid reports whether the view has a device buffer.
func (v *view) IsValid() bool { return v.dev.IsValid() }

// Mode returns the access mode.
func (v *view) Mode() AccessMode { return v.mode }

// Start returns the first element of the draw range.
func (v *view) Start() int { return v.start }

// Count returns the number of elements in the draw range.
func (v *view) Count() int { return v.count }

// Stride returns the element size in bytes.
func (v *view) Stride() int { return v.stride }

// Weak returns the view's observer of the CPU buffer.
func (v *view) Weak() buffer.Weak { return v.weak }

// Owned returns the strong hold of a view that allocated its own buffer, or
// nil for views over a caller's buffer.
func (v *view) Owned() *buffer.Ref { return v.owned }

// DeviceBuffer returns the device buffer. It is invalid when allocation failed.
func (v *view) DeviceBuffer() *resource.Buffer { return &v.dev }

// SetRange changes the draw range. It does not upload anything.
func (v *view) SetRange(start, count int) {
	if start < 0 || count < 0 {
		panic("stream: negative range")
	}
	v.start, v.count = start, count
}

// Update queues an upload of count elements starting at start from the
// current CPU buffer. A zero count does nothing, even on a Static view.
// Otherwise updating a Static view panics. When the CPU buffer has been released the update is skipped.
// When the buffer has grown past the device buffer, a larger device buffer
// is allocated and the whole buffer is uploaded.
func (v *view) Update(start, count int) {
	if count == 0 {
		return
	}
	if v.mode == Static {
		panic("stream: Update on a Static view")
	}
	if !v.dev.IsValid() {
		return
	}
	hold := v.weak.Acquire()
	if hold == nil {
		logging.L().Warn("stream: update skipped, buffer released", "label", v.label)
		return
	}
	b := hold.Buffer()
	if start < 0 || count < 0 || start+count > b.NumElements() {
		hold.Release()
		panic(fmt.Sprintf("stream: update [%d, %d) outside buffer of %d elements", start, start+count, b.NumElements()))
	}
	if uint64(b.NumBytes()) > v.dev.Size() { //nolint:gosec // non-negative
		if !v.allocate(b.NumBytes()) {
			hold.Release()
			v.retireDevice()
			return
		}
		v.up.enqueue(hold, b.Bytes(), 0, b.NumBytes(), v.dev.Get(), v.uploadMode())
		return
	}
	lo := start * v.stride
	v.up.enqueue(hold, b.Bytes(), lo, lo+count*v.stride, v.dev.Get(), v.uploadMode())
}

// Close retires the device buffer until the next submission completes and drops
// the view's own buffer hold. Close is idempotent.
func (v *view) Close() {
	v.retireDevice()
	if v.owned != nil {
		v.owned.Release()
		v.owned = nil
	}
}
