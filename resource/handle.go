package resource

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Handle owns one device object of type T.
//
// Handle is move-only. A copy shares the object without sharing ownership,
// so freeing both releases it twice; pass *Handle and move with Take. Values
// may be returned from constructors and stored once, as long as only one
// copy is ever freed.
//
// The zero Handle is invalid and Free on it does nothing.
type Handle[T any] struct {
	value   T
	release func(T)
	valid   bool
}

// NewHandle returns a valid handle owning v. release runs once, on Free.
// A nil release makes Free only invalidate the handle.
func NewHandle[T any](v T, release func(T)) Handle[T] {
	return Handle[T]{value: v, release: release, valid: true}
}

// IsValid reports whether the handle currently owns an object.
func (h *Handle[T]) IsValid() bool {
	return h.valid
}

// Get returns the owned object, or the zero T when the handle is invalid.
func (h *Handle[T]) Get() T {
	return h.value
}

// Free destroys the owned object if there is one and invalidates the handle.
func (h *Handle[T]) Free() {
	if !h.valid {
		return
	}
	v, release := h.value, h.release
	*h = Handle[T]{}
	if release != nil {
		release(v)
	}
}

// Take moves ownership to the returned handle and leaves h invalid.
func (h *Handle[T]) Take() Handle[T] {
	moved := *h
	*h = Handle[T]{}
	return moved
}

// Buffer is a device buffer together with its allocation size and usage.
// It is move-only like Handle.
type Buffer struct {
	Handle[hal.Buffer]
	size  uint64
	usage gputypes.BufferUsage
}

// Size returns the allocation size in bytes, or 0 for an invalid buffer.
func (b *Buffer) Size() uint64 {
	if !b.valid {
		return 0
	}
	return b.size
}

// Usage returns the usage flags the buffer was created with.
func (b *Buffer) Usage() gputypes.BufferUsage {
	return b.usage
}

// Take moves the buffer to the returned value and leaves b invalid.
func (b *Buffer) Take() Buffer {
	moved := Buffer{Handle: b.Handle.Take(), size: b.size, usage: b.usage}
	b.size, b.usage = 0, 0
	return moved
}

// Texture is a device texture together with the descriptor it was created from.
// It is move-only like Handle.
type Texture struct {
	Handle[hal.Texture]
	desc hal.TextureDescriptor
}

// Descriptor returns the creation descriptor.
func (t *Texture) Descriptor() hal.TextureDescriptor {
	return t.desc
}

// Take moves the texture to the returned value and leaves t invalid.
func (t *Texture) Take() Texture {
	moved := Texture{Handle: t.Handle.Take(), desc: t.desc}
	t.desc = hal.TextureDescriptor{}
	return moved
}

// TextureView is an owned view into a texture.
type TextureView = Handle[hal.TextureView]

// Sampler is an owned texture sampler.
type Sampler = Handle[hal.Sampler]

// BindGroup is an owned descriptor set.
type BindGroup = Handle[hal.BindGroup]

// ShaderModule is an owned shader module.
type ShaderModule = Handle[hal.ShaderModule]
