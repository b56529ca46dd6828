package barrier

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/internal/logging"
)

// Request asks for a transition to move to State.
type Request struct {
	Transition *ScopedTransition
	State      gputypes.TextureUsage
}

// Batch accumulates texture barriers for one TransitionTextures call.
// Requests update the tracked state immediately; the barriers reach the
// command stream at Flush.
//
// The zero Batch is ready to use. A Batch is not safe for concurrent use.
type Batch struct {
	barriers []hal.TextureBarrier
}

// Request queues a barrier moving t to usage. Nothing is queued when t is
// unset or already in usage. It reports whether a barrier was queued.
func (b *Batch) Request(t *ScopedTransition, usage gputypes.TextureUsage) bool {
	if t == nil || t.target == nil || t.cur == usage {
		return false
	}
	b.barriers = append(b.barriers, hal.TextureBarrier{
		Texture: t.target,
		Range:   t.rng,
		Usage:   hal.TextureUsageTransition{OldUsage: t.cur, NewUsage: usage},
	})
	t.cur = usage
	return true
}

// Len returns the number of queued barriers.
func (b *Batch) Len() int { return len(b.barriers) }

// Flush issues every queued barrier in a single call and resets the batch.
// An empty batch issues nothing. It returns the number of barriers issued.
func (b *Batch) Flush(enc hal.CommandEncoder) int {
	n := len(b.barriers)
	if n == 0 {
		return 0
	}
	enc.TransitionTextures(b.barriers)
	logging.L().Debug("barrier: batch issued", "barriers", n)
	b.barriers = nil
	return n
}

// EndAll drives every open transition in ts back to its end usage with one
// batched barrier call, then clears each transition's target. Unset and nil
// entries are skipped. It returns the number of barriers issued.
func EndAll(enc hal.CommandEncoder, ts []*ScopedTransition) int {
	var b Batch
	for _, t := range ts {
		if t == nil || t.target == nil {
			continue
		}
		b.Request(t, t.end)
	}
	n := b.Flush(enc)
	for _, t := range ts {
		if t != nil {
			t.target = nil
		}
	}
	return n
}

// TransitionAll applies every request with one batched barrier call.
// Requests for closed transitions, or for the usage a transition is already
// in, are skipped. It returns the number of barriers issued.
func TransitionAll(enc hal.CommandEncoder, reqs []Request) int {
	var b Batch
	for _, r := range reqs {
		b.Request(r.Transition, r.State)
	}
	return b.Flush(enc)
}
