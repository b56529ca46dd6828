// Package barrier sequences texture state transitions and emits them in
// batches.
//
// A [ScopedTransition] tracks one render target from a start usage through
// any number of intermediate usages back to a required end usage. It is
// open while its current usage differs from the end usage, and releasing an
// open transition panics.
//
// [Batch] collects barriers and issues them as a single
// hal.CommandEncoder.TransitionTextures call. [EndAll] and [TransitionAll]
// are the two batch algorithms built on it:
//
//	ts := []*barrier.ScopedTransition{shadow, gbuffer}
//	barrier.TransitionAll(enc, []barrier.Request{{shadow, gputypes.TextureUsageRenderAttachment}})
//	// ... draw ...
//	barrier.EndAll(enc, ts)
package barrier
