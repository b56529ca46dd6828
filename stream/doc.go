// Package stream mirrors CPU vertex and index buffers on the device.
//
// # Views
//
// A [VertexView] or [IndexView] presents a sub-range of a shared
// buffer.ByteBuffer to the device through exactly one device buffer. The view
// observes the CPU buffer through a buffer.Weak, so several views can cover
// disjoint or overlapping ranges of one buffer without keeping it alive.
//
// The [AccessMode] is fixed at construction. Every view uploads the whole
// buffer once when it is created. Static views never upload again and
// calling Update on one with a non-zero count panics. Dynamic and Streaming views re-upload a range
// on each Update.
//
// # Uploads
//
// Uploads are queued on an [Uploader] and reference the CPU bytes without
// copying them. Each queued upload holds a strong buffer.Ref so the memory
// stays valid until the device has consumed it: [Uploader.Flush] submits the
// queued copies in one command buffer, and [Uploader.Poll] releases the holds
// of every submission the queue reports complete.
//
// Device buffers a view replaces or closes are retired, not destroyed: they
// are freed once the next submission through the uploader completes. Submit
// frame command buffers with [Uploader.Submit] so uploads and draws share one
// submission and retirements wait for the draws.
//
//	up := stream.NewUploader(alloc, queue, "mesh")
//	vv := stream.NewVertexViewCount(up, layout, 1024, stream.Dynamic)
//	// ... write vertices ...
//	vv.Update(0, 1024)
//	up.Flush()
//	// next frame
//	up.Poll()
//
// # Drawing
//
// A [DrawRequest] binds its views and records a draw. Views without a device
// buffer, for example after a failed allocation, make the request draw
// nothing.
package stream
