// Package resource owns single GPU objects created on a hal.Device.
//
// A [Handle] pairs a device object with the function that destroys it.
// [Handle.Free] destroys the object at most once and leaves the handle
// invalid, so calling it again (or on a handle that never held anything) is
// harmless. Handles are not reference counted: exactly one owner frees them,
// and [Handle.Take] moves ownership explicitly.
//
// [Allocator] creates buffers, textures, views, samplers, bind groups and
// shader modules against a byte budget. An allocation that would exceed the
// budget, or that the device rejects, yields an invalid handle together with
// an error wrapping [ErrBudgetExceeded] or [ErrAllocationFailed].
//
// [PerFrame] keeps one value per frame in flight and [DeletionQueue] defers
// Free until the submission that last used a resource has completed.
package resource
