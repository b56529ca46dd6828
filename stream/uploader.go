package stream

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/buffer"
	"github.com/gogpu/gpures/internal/logging"
	"github.com/gogpu/gpures/resource"
)

// ErrUploaderClosed is returned when flushing a closed uploader.
var ErrUploaderClosed = errors.New("stream: uploader closed")

// copyAlign is the offset and size alignment of buffer copies and queue writes.
const copyAlign = 4

func alignDown(n int) int { return n &^ (copyAlign - 1) }
func alignUp(n int) int   { return (n + copyAlign - 1) &^ (copyAlign - 1) }

// upload is one queued copy of src[lo:hi] to the same offsets of dst.
type upload struct {
	hold   *buffer.Ref
	src    []byte
	lo, hi int
	dst    hal.Buffer
	mode   AccessMode
}

// span returns the copy-aligned destination offset and the bytes to write.
// The tail is zero padded when the aligned range runs past src.
func (u upload) span() (uint64, []byte) {
	lo, hi := alignDown(u.lo), alignUp(u.hi)
	if hi <= len(u.src) {
		return uint64(lo), u.src[lo:hi] //nolint:gosec // lo >= 0
	}
	padded := make([]byte, hi-lo)
	copy(padded, u.src[lo:])
	return uint64(lo), padded //nolint:gosec // lo >= 0
}

// submission is a flushed batch waiting for the device.
type submission struct {
	index   uint64
	holds   []*buffer.Ref
	staging []resource.Buffer
	cmd     hal.CommandBuffer
}

// UploadStats reports uploader activity.
type UploadStats struct {
	Uploads     uint64
	Bytes       uint64
	Submissions uint64
	Queued      int
	InFlight    int
	Retiring    int
}

// Uploader queues uploads from CPU buffers to device buffers and submits
// them in batches.
//
// Uploader is safe for concurrent use.
type Uploader struct {
	alloc *resource.Allocator
	queue hal.Queue
	label string

	mu       sync.Mutex
	queued   []upload
	inflight []submission
	retiring []resource.Freer
	retired  resource.DeletionQueue
	last     uint64
	stats    UploadStats
	closed   bool
}

// NewUploader returns an uploader that allocates through alloc and submits
// on queue.
func NewUploader(alloc *resource.Allocator, queue hal.Queue, label string) *Uploader {
	if alloc == nil || queue == nil {
		panic("stream: NewUploader requires an allocator and a queue")
	}
	if label == "" {
		label = "stream"
	}
	return &Uploader{alloc: alloc, queue: queue, label: label}
}

// Allocator returns the allocator device buffers are created with.
func (u *Uploader) Allocator() *resource.Allocator { return u.alloc }

// enqueue queues src[lo:hi] for dst. The uploader takes ownership of hold.
func (u *Uploader) enqueue(hold *buffer.Ref, src []byte, lo, hi int, dst hal.Buffer, mode AccessMode) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		hold.Release()
		logging.L().Warn("stream: upload dropped, uploader closed", "label", u.label)
		return
	}
	u.queued = append(u.queued, upload{hold: hold, src: src, lo: lo, hi: hi, dst: dst, mode: mode})
}

// Retire frees f once the next submission has completed, or at once when
// the uploader is closed. Queue indices are ordered, so every earlier
// submission that may still bind f completes first.
func (u *Uploader) Retire(f resource.Freer) {
	if f == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		f.Free()
		return
	}
	u.retiring = append(u.retiring, f)
}

// Flush submits every queued upload in one command buffer. It returns the
// submission index, or the previous index when there was nothing to submit.
// Uploads that fail individually are logged and dropped.
func (u *Uploader) Flush() (uint64, error) {
	return u.Submit()
}

// Submit encodes every queued upload into one command buffer and submits it
// ahead of cmds in a single queue submission, so the work in cmds sees the
// uploaded data. Device buffers retired since the last submission are freed
// once this submission completes. The caller keeps ownership of cmds.
//
// With nothing queued, nothing retired and no cmds, Submit returns the
// previous index without touching the queue.
func (u *Uploader) Submit(cmds ...hal.CommandBuffer) (uint64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return 0, ErrUploaderClosed
	}
	if len(u.queued) == 0 && len(u.retiring) == 0 && len(cmds) == 0 {
		return u.last, nil
	}
	queued := u.queued
	u.queued = nil

	holds := make([]*buffer.Ref, 0, len(queued))
	for _, q := range queued {
		holds = append(holds, q.hold)
	}

	device := u.alloc.Device()
	var (
		cmd     hal.CommandBuffer
		staging []resource.Buffer
		bytes   uint64
	)
	// Retirements alone still need a submission index to wait on.
	if len(queued) > 0 || len(cmds) == 0 {
		var err error
		cmd, staging, bytes, err = u.encodeLocked(device, queued)
		if err != nil {
			u.abortLocked(holds, staging)
			return 0, err
		}
	}

	batch := cmds
	if cmd != nil {
		batch = append([]hal.CommandBuffer{cmd}, cmds...)
	}
	idx, err := u.queue.Submit(batch)
	if err != nil {
		if cmd != nil {
			device.FreeCommandBuffer(cmd)
		}
		u.abortLocked(holds, staging)
		return 0, fmt.Errorf("stream: submit: %w", err)
	}

	u.inflight = append(u.inflight, submission{index: idx, holds: holds, staging: staging, cmd: cmd})
	for _, f := range u.retiring {
		u.retired.Defer(idx, f)
	}
	u.retiring = nil
	u.last = idx
	u.stats.Uploads += uint64(len(queued))
	u.stats.Bytes += bytes
	u.stats.Submissions++
	logging.L().Debug("stream: uploads submitted",
		"label", u.label, "uploads", len(queued), "bytes", bytes, "commands", len(cmds), "submission", idx)
	return idx, nil
}

// encodeLocked records queued uploads into a new command buffer. Streaming
// uploads are written through the queue right away.
func (u *Uploader) encodeLocked(device hal.Device, queued []upload) (hal.CommandBuffer, []resource.Buffer, uint64, error) {
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: u.label + "_upload"})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("stream: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(u.label + "_upload"); err != nil {
		return nil, nil, 0, fmt.Errorf("stream: begin encoding: %w", err)
	}

	var staging []resource.Buffer
	var bytes uint64
	for _, q := range queued {
		off, data := q.span()
		switch q.mode {
		case Streaming:
			if err := u.queue.WriteBuffer(q.dst, off, data); err != nil {
				logging.L().Warn("stream: queue write failed", "label", u.label, "err", err)
				continue
			}
		default:
			sb, err := u.stageLocked(device, data)
			if err != nil {
				logging.L().Warn("stream: staging failed", "label", u.label, "err", err)
				continue
			}
			enc.CopyBufferToBuffer(sb.Get(), q.dst, []hal.BufferCopy{{
				SrcOffset: 0,
				DstOffset: off,
				Size:      uint64(len(data)),
			}})
			staging = append(staging, sb)
		}
		bytes += uint64(len(data))
	}

	cmd, err := enc.EndEncoding()
	if err != nil {
		return nil, staging, 0, fmt.Errorf("stream: end encoding: %w", err)
	}
	return cmd, staging, bytes, nil
}

// stageLocked copies data into a new host-visible staging buffer.
func (u *Uploader) stageLocked(device hal.Device, data []byte) (resource.Buffer, error) {
	size := uint64(len(data))
	sb, err := u.alloc.CreateBuffer("", size, gputypes.BufferUsageMapWrite|gputypes.BufferUsageCopySrc)
	if err != nil {
		return resource.Buffer{}, err
	}
	m, err := device.MapBuffer(sb.Get(), 0, size)
	if err != nil {
		sb.Free()
		return resource.Buffer{}, fmt.Errorf("map staging buffer: %w", err)
	}
	copy(unsafe.Slice((*byte)(m.Ptr), len(data)), data)
	if err := device.UnmapBuffer(sb.Get()); err != nil {
		sb.Free()
		return resource.Buffer{}, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return sb, nil
}

// abortLocked releases the holds and staging buffers of a batch that never
// reached the device. Retirements wait for the next submission.
func (u *Uploader) abortLocked(holds []*buffer.Ref, staging []resource.Buffer) {
	for _, h := range holds {
		h.Release()
	}
	for i := range staging {
		staging[i].Free()
	}
}

// Poll releases the holds and staging buffers of every submission the queue
// reports complete, and frees retired device buffers. It returns the number
// of holds released.
func (u *Uploader) Poll() int {
	completed := u.queue.PollCompleted()

	u.mu.Lock()
	var done []submission
	keep := u.inflight[:0]
	for _, s := range u.inflight {
		if s.index <= completed {
			done = append(done, s)
		} else {
			keep = append(keep, s)
		}
	}
	u.inflight = keep
	u.mu.Unlock()

	released := u.finish(done)
	u.retired.Collect(completed)
	return released
}

// finish releases everything a completed submission kept alive.
func (u *Uploader) finish(done []submission) int {
	device := u.alloc.Device()
	released := 0
	for _, s := range done {
		for _, h := range s.holds {
			h.Release()
			released++
		}
		for i := range s.staging {
			s.staging[i].Free()
		}
		if s.cmd != nil {
			device.FreeCommandBuffer(s.cmd)
		}
	}
	return released
}

// Stats returns current activity counters.
func (u *Uploader) Stats() UploadStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.stats
	s.Queued = len(u.queued)
	for _, sub := range u.inflight {
		s.InFlight += len(sub.holds)
	}
	s.Retiring = len(u.retiring) + u.retired.Len()
	return s
}

// Close waits for the device to go idle and releases every queued and
// in-flight hold. Queued uploads that were never flushed are dropped.
// Close is idempotent.
func (u *Uploader) Close() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.closed = true
	queued, inflight, retiring := u.queued, u.inflight, u.retiring
	u.queued, u.inflight, u.retiring = nil, nil, nil
	u.mu.Unlock()

	err := u.alloc.Device().WaitIdle()
	if err != nil {
		logging.L().Warn("stream: wait idle failed", "label", u.label, "err", err)
	}
	for _, q := range queued {
		q.hold.Release()
	}
	u.finish(inflight)
	for _, f := range retiring {
		f.Free()
	}
	u.retired.Flush()
	return err
}
