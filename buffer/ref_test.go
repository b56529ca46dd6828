package buffer

import (
	"sync"
	"testing"
)

func TestRefLifecycle(t *testing.T) {
	b := New(NewFixedWidthIndex(4, 4))
	ref := Share(b)
	weak := ref.Weak()

	released := 0
	ref.OnRelease(func() { released++ })

	hold := weak.Acquire()
	if hold == nil {
		t.Fatal("Acquire on live buffer returned nil")
	}
	if hold.Buffer() != b {
		t.Error("promoted hold does not see the shared buffer")
	}
	if got := weak.Holds(); got != 2 {
		t.Errorf("Holds() = %d, want 2", got)
	}

	ref.Release()
	ref.Release() // second release of the same Ref is a no-op
	if !weak.Alive() {
		t.Fatal("buffer dropped while a promoted hold is outstanding")
	}
	if released != 0 {
		t.Fatal("release callback fired early")
	}

	hold.Release()
	if weak.Alive() {
		t.Error("buffer still alive after last hold released")
	}
	if released != 1 {
		t.Errorf("release callback ran %d times, want 1", released)
	}
	if weak.Acquire() != nil {
		t.Error("Acquire after drop should return nil")
	}
}

func TestReleasedRefPanics(t *testing.T) {
	ref := Share(New(NewFixedWidthIndex(1, 2)))
	keep := ref.Clone()
	defer keep.Release()
	ref.Release()
	expectPanic(t, "Buffer on released Ref", func() { _ = ref.Buffer() })
}

func TestZeroWeak(t *testing.T) {
	var w Weak
	if w.Alive() || w.Acquire() != nil || w.Holds() != 0 {
		t.Error("zero Weak should observe nothing")
	}
}

func TestConcurrentAcquireRelease(t *testing.T) {
	ref := Share(New(NewFixedWidthIndex(16, 4)))
	weak := ref.Weak()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if h := weak.Acquire(); h != nil {
					h.Release()
				}
			}
		}()
	}
	wg.Wait()

	if got := ref.Holds(); got != 1 {
		t.Errorf("Holds() = %d after balanced acquire/release, want 1", got)
	}
	ref.Release()
	if weak.Alive() {
		t.Error("buffer alive after final release")
	}
}
