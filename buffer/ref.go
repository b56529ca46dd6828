package buffer

import (
	"sync"
	"sync/atomic"
)

// shared is the control block behind a set of Ref and Weak handles.
type shared struct {
	strong atomic.Int64
	buf    atomic.Pointer[ByteBuffer]

	mu        sync.Mutex
	onRelease []func()
}

// drop runs once, when the last strong hold is released.
func (s *shared) drop() {
	s.buf.Store(nil)
	s.mu.Lock()
	fns := s.onRelease
	s.onRelease = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Ref is one strong hold on a shared ByteBuffer. The buffer stays alive
// while any Ref obtained from Share, Clone or Weak.Acquire is unreleased.
//
// Each Ref is released at most once; further Release calls are no-ops.
type Ref struct {
	s        *shared
	released atomic.Bool
}

// Share places b under reference-counted ownership and returns the first
// strong hold.
func Share(b *ByteBuffer) *Ref {
	if b == nil {
		panic("buffer: Share called with nil buffer")
	}
	s := &shared{}
	s.strong.Store(1)
	s.buf.Store(b)
	return &Ref{s: s}
}

func (r *Ref) mustLive() {
	if r.released.Load() {
		panic("buffer: use of released Ref")
	}
}

// Buffer returns the shared buffer.
func (r *Ref) Buffer() *ByteBuffer {
	r.mustLive()
	return r.s.buf.Load()
}

// Clone returns an additional strong hold on the same buffer.
func (r *Ref) Clone() *Ref {
	r.mustLive()
	r.s.strong.Add(1)
	return &Ref{s: r.s}
}

// Release drops this hold. When it was the last strong hold the buffer is
// dropped and every OnRelease callback runs on the calling goroutine.
func (r *Ref) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	if r.s.strong.Add(-1) == 0 {
		r.s.drop()
	}
}

// OnRelease registers fn to run when the last strong hold is released.
func (r *Ref) OnRelease(fn func()) {
	r.mustLive()
	r.s.mu.Lock()
	r.s.onRelease = append(r.s.onRelease, fn)
	r.s.mu.Unlock()
}

// Weak returns a non-owning observer of the buffer.
func (r *Ref) Weak() Weak {
	r.mustLive()
	return Weak{s: r.s}
}

// Holds returns the current number of strong holds.
func (r *Ref) Holds() int {
	return int(r.s.strong.Load())
}

// Weak observes a shared buffer without keeping it alive.
// The zero Weak observes nothing.
type Weak struct {
	s *shared
}

// Acquire promotes w to a strong hold. It returns nil once the last strong
// hold has been released.
func (w Weak) Acquire() *Ref {
	if w.s == nil {
		return nil
	}
	for {
		n := w.s.strong.Load()
		if n <= 0 {
			return nil
		}
		if w.s.strong.CompareAndSwap(n, n+1) {
			return &Ref{s: w.s}
		}
	}
}

// Alive reports whether any strong hold remains.
func (w Weak) Alive() bool {
	return w.s != nil && w.s.strong.Load() > 0
}

// Holds returns the current number of strong holds.
func (w Weak) Holds() int {
	if w.s == nil {
		return 0
	}
	return int(w.s.strong.Load())
}
