package resource

// PerFrame holds one value per frame in flight, indexed by a frame counter.
type PerFrame[T any] struct {
	slots []T
	frame uint64
}

// NewPerFrame returns a ring of n slots, each initialized by init.
// n below 1 is treated as 1.
func NewPerFrame[T any](n int, init func(slot int) T) *PerFrame[T] {
	n = max(n, 1)
	p := &PerFrame[T]{slots: make([]T, n)}
	if init != nil {
		for i := range p.slots {
			p.slots[i] = init(i)
		}
	}
	return p
}

// Len returns the number of slots.
func (p *PerFrame[T]) Len() int { return len(p.slots) }

// Frame returns the current frame counter.
func (p *PerFrame[T]) Frame() uint64 { return p.frame }

// Index returns the slot index of the current frame.
func (p *PerFrame[T]) Index() int {
	return int(p.frame % uint64(len(p.slots))) //nolint:gosec // bounded by len
}

// Current returns a pointer to the current frame's slot.
func (p *PerFrame[T]) Current() *T {
	return &p.slots[p.Index()]
}

// At returns a pointer to slot i.
func (p *PerFrame[T]) At(i int) *T {
	return &p.slots[i]
}

// Advance moves to the next frame and returns its slot.
func (p *PerFrame[T]) Advance() *T {
	p.frame++
	return p.Current()
}

// Each calls fn for every slot in index order.
func (p *PerFrame[T]) Each(fn func(i int, v *T)) {
	for i := range p.slots {
		fn(i, &p.slots[i])
	}
}
