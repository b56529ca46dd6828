package barrier

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

type recordingEncoder struct {
	noop.CommandEncoder
	calls    int
	barriers []hal.TextureBarrier
}

func (e *recordingEncoder) TransitionTextures(b []hal.TextureBarrier) {
	e.calls++
	e.barriers = append(e.barriers, b...)
}

// fakeTexture has a non-zero size so distinct values compare unequal.
type fakeTexture struct {
	noop.Texture
	id int
}

const (
	sampled = gputypes.TextureUsageTextureBinding
	target  = gputypes.TextureUsageRenderAttachment
	copyDst = gputypes.TextureUsageCopyDst
)

func TestTransitionLifecycle(t *testing.T) {
	tex := &fakeTexture{id: 1}
	tr := New(tex, sampled, sampled)
	if tr.IsOpen() {
		t.Fatal("transition starting at its end usage should not be open")
	}

	enc := &recordingEncoder{}
	if !tr.Transition(enc, target) {
		t.Fatal("Transition to a new usage emitted no barrier")
	}
	if tr.Transition(enc, target) {
		t.Error("Transition to the current usage emitted a barrier")
	}
	if !tr.IsOpen() || tr.Current() != target {
		t.Errorf("after transition: open=%v current=%#x", tr.IsOpen(), uint64(tr.Current()))
	}
	if enc.calls != 1 {
		t.Errorf("TransitionTextures called %d times, want 1", enc.calls)
	}
	got := enc.barriers[0]
	if got.Texture != hal.Texture(tex) || got.Usage.OldUsage != sampled || got.Usage.NewUsage != target {
		t.Errorf("barrier = %+v", got)
	}

	tr.Close(enc)
	if tr.IsValid() || tr.Current() != sampled {
		t.Errorf("after Close: valid=%v current=%#x", tr.IsValid(), uint64(tr.Current()))
	}
	tr.Release()
}

func TestReleaseOpenPanics(t *testing.T) {
	tr := New(&fakeTexture{id: 1}, sampled, sampled)
	tr.Transition(&recordingEncoder{}, target)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic releasing an open transition")
		}
	}()
	tr.Release()
}

func TestSetTwicePanics(t *testing.T) {
	var tr ScopedTransition
	tr.Set(&fakeTexture{id: 1}, sampled, sampled)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for Set on a set transition")
		}
	}()
	tr.Set(&fakeTexture{id: 2}, sampled, sampled)
}

func TestEndAllSingleCall(t *testing.T) {
	a := New(&fakeTexture{id: 1}, sampled, sampled)
	b := New(&fakeTexture{id: 2}, sampled, sampled)
	c := New(&fakeTexture{id: 3}, copyDst, sampled)
	settled := New(&fakeTexture{id: 4}, sampled, sampled)

	enc := &recordingEncoder{}
	TransitionAll(enc, []Request{{a, target}, {b, target}})
	enc.calls, enc.barriers = 0, nil

	n := EndAll(enc, []*ScopedTransition{a, b, c, settled, nil})
	if n != 3 {
		t.Errorf("EndAll issued %d barriers, want 3", n)
	}
	if enc.calls != 1 {
		t.Errorf("TransitionTextures called %d times, want 1", enc.calls)
	}
	for _, br := range enc.barriers {
		if br.Usage.NewUsage != sampled {
			t.Errorf("barrier ends in %#x, want %#x", uint64(br.Usage.NewUsage), uint64(sampled))
		}
	}
	for i, tr := range []*ScopedTransition{a, b, c, settled} {
		if tr.IsValid() {
			t.Errorf("transition %d still has a target after EndAll", i)
		}
		tr.Release()
	}
}

func TestEmptyBatchNoCall(t *testing.T) {
	enc := &recordingEncoder{}
	if n := EndAll(enc, nil); n != 0 {
		t.Errorf("EndAll(nil) = %d", n)
	}
	settled := New(&fakeTexture{id: 1}, sampled, sampled)
	if n := EndAll(enc, []*ScopedTransition{settled}); n != 0 {
		t.Errorf("EndAll on settled transition = %d", n)
	}
	if n := TransitionAll(enc, nil); n != 0 {
		t.Errorf("TransitionAll(nil) = %d", n)
	}
	if enc.calls != 0 {
		t.Errorf("TransitionTextures called %d times for empty batches", enc.calls)
	}
}

func TestTransitionAllIdempotent(t *testing.T) {
	a := New(&fakeTexture{id: 1}, sampled, sampled)
	b := New(&fakeTexture{id: 2}, sampled, sampled)
	closed := New(&fakeTexture{id: 3}, sampled, sampled)
	EndAll(&recordingEncoder{}, []*ScopedTransition{closed})

	enc := &recordingEncoder{}
	reqs := []Request{{a, target}, {b, copyDst}, {closed, target}}
	if n := TransitionAll(enc, reqs); n != 2 {
		t.Errorf("first TransitionAll = %d, want 2", n)
	}
	if n := TransitionAll(enc, reqs); n != 0 {
		t.Errorf("repeated TransitionAll = %d, want 0", n)
	}
	if enc.calls != 1 {
		t.Errorf("TransitionTextures called %d times, want 1", enc.calls)
	}
	if b.Current() != copyDst {
		t.Errorf("b current = %#x", uint64(b.Current()))
	}
	EndAll(enc, []*ScopedTransition{a, b})
}

func TestBatchAccumulates(t *testing.T) {
	a := New(&fakeTexture{id: 1}, sampled, sampled)
	var batch Batch
	batch.Request(a, copyDst)
	batch.Request(a, target)
	if batch.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", batch.Len())
	}
	enc := &recordingEncoder{}
	batch.Flush(enc)
	if enc.calls != 1 || len(enc.barriers) != 2 {
		t.Fatalf("calls=%d barriers=%d", enc.calls, len(enc.barriers))
	}
	if enc.barriers[1].Usage.OldUsage != copyDst {
		t.Error("second barrier should start from the first barrier's usage")
	}
	if batch.Len() != 0 {
		t.Error("Flush did not reset the batch")
	}
	a.Close(enc)
}
