package barrier

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// AllSubresources covers every mip level and array layer of a color texture.
var AllSubresources = hal.TextureRange{Aspect: gputypes.TextureAspectAll}

// ScopedTransition tracks the usage state of one texture between a start and
// an end usage.
//
// The zero ScopedTransition is unset; Set assigns a target.
type ScopedTransition struct {
	target hal.Texture
	rng    hal.TextureRange
	start  gputypes.TextureUsage
	cur    gputypes.TextureUsage
	end    gputypes.TextureUsage
}

// New returns a transition for target that starts in start and must be
// returned to end.
func New(target hal.Texture, start, end gputypes.TextureUsage) *ScopedTransition {
	t := &ScopedTransition{}
	t.Set(target, start, end)
	return t
}

// Set assigns the target and states of an unset transition. It panics when
// the transition already tracks a target.
func (t *ScopedTransition) Set(target hal.Texture, start, end gputypes.TextureUsage) {
	if t.target != nil {
		panic("barrier: Set on a transition that already has a target")
	}
	if target == nil {
		panic("barrier: Set called with nil target")
	}
	t.target = target
	t.rng = AllSubresources
	t.start, t.cur, t.end = start, start, end
}

// SetRange limits the barriers to a subresource range.
func (t *ScopedTransition) SetRange(rng hal.TextureRange) { t.rng = rng }

// IsValid reports whether the transition tracks a target.
func (t *ScopedTransition) IsValid() bool { return t.target != nil }

// Target returns the tracked texture, or nil once closed.
func (t *ScopedTransition) Target() hal.Texture { return t.target }

// Start returns the usage the target was in when tracking began.
func (t *ScopedTransition) Start() gputypes.TextureUsage { return t.start }

// Current returns the usage the target is in at this point of the command stream.
func (t *ScopedTransition) Current() gputypes.TextureUsage { return t.cur }

// End returns the usage the target must be returned to.
func (t *ScopedTransition) End() gputypes.TextureUsage { return t.end }

// IsOpen reports whether the target still has to be driven to its end usage.
func (t *ScopedTransition) IsOpen() bool {
	return t.target != nil && t.cur != t.end
}

// Transition moves the target to usage as a batch of one. It reports whether
// a barrier was emitted.
func (t *ScopedTransition) Transition(enc hal.CommandEncoder, usage gputypes.TextureUsage) bool {
	var b Batch
	b.Request(t, usage)
	return b.Flush(enc) > 0
}

// Close drives the target to its end usage if needed and clears it.
func (t *ScopedTransition) Close(enc hal.CommandEncoder) {
	EndAll(enc, []*ScopedTransition{t})
}

// Release clears the target. Releasing a transition that is still open is a
// logic error and panics.
func (t *ScopedTransition) Release() {
	if t.IsOpen() {
		panic(fmt.Sprintf("barrier: released open transition (current %#x, end %#x)", uint64(t.cur), uint64(t.end)))
	}
	t.target = nil
}

// String describes the transition for logs.
func (t *ScopedTransition) String() string {
	state := "closed"
	switch {
	case t.IsOpen():
		state = "open"
	case t.target != nil:
		state = "settled"
	}
	return fmt.Sprintf("ScopedTransition[%s start=%#x current=%#x end=%#x]",
		state, uint64(t.start), uint64(t.cur), uint64(t.end))
}
