package stream

import "fmt"

// AccessMode selects how a view's device buffer is updated.
type AccessMode uint8

const (
	// Static views upload once at construction and never again.
	Static AccessMode = iota

	// Dynamic views stage updates through a mapped buffer and copy them
	// into device memory in the flush command buffer.
	Dynamic

	// Streaming views write updates through the queue at flush. Use it for
	// data rewritten every frame.
	Streaming
)

// String returns the mode name.
func (m AccessMode) String() string {
	switch m {
	case Static:
		return "Static"
	case Dynamic:
		return "Dynamic"
	case Streaming:
		return "Streaming"
	default:
		return fmt.Sprintf("AccessMode(%d)", m)
	}
}

// ParseAccessMode parses a mode name as written by String, case-sensitively.
func ParseAccessMode(s string) (AccessMode, error) {
	for _, m := range []AccessMode{Static, Dynamic, Streaming} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("stream: unknown access mode %q", s)
}
