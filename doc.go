// Package gpures is a GPU buffer and resource-transition layer built on
// gogpu/wgpu's hal.
//
// # Overview
//
// gpures owns raw vertex and index bytes on the CPU, uploads them to the
// device under a fixed access mode, owns single device objects with an
// idempotent Free, and batches render-target state transitions into single
// barrier calls.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gpures"
//	    "github.com/gogpu/gpures/stream"
//	    _ "github.com/gogpu/wgpu/hal/noop"
//	)
//
//	ctx, err := gpures.Open(gpures.Config{Backend: "noop"})
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//
//	idx := stream.NewIndexViewCount(ctx.Uploader(), 2, 6, stream.Dynamic)
//	defer idx.Close()
//
//	frame, _ := ctx.BeginFrame()
//	// ... write indices, record passes ...
//	ctx.EndFrame(cmds...)
//
// # Architecture
//
// The library is organized into:
//   - buffer: descriptors, move-only byte buffers, shared Ref/Weak ownership
//   - stream: vertex and index views with Static, Dynamic and Streaming uploads
//   - resource: device handles, the budgeted allocator, per-frame rings, deferred deletion
//   - barrier: scoped texture transitions and batched barriers
//   - program: permutation-keyed program caches with LRU eviction
//   - uniform: tagged uniform values and std140 blocks
//   - geometry: attribute helpers, transforms, bounds and tangents
//
// # Context
//
// There are no package-level devices. A [Context] is opened standalone with
// [Open], or attached to a shared device with [FromProvider] or [FromDevice];
// every object is created through it. Close releases everything the context
// owns and destroys the device only when it is not shared.
//
// # Logging
//
// gpures is silent by default. Call [SetLogger] to receive slog output from
// every sub-package.
package gpures
