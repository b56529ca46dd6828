package program

import (
	"fmt"
	"strconv"
	"strings"
)

// Mask is a set of permutation flags.
type Mask uint64

// Has reports whether every bit of f is set.
func (m Mask) Has(f Mask) bool { return m&f == f }

// With returns m with f set.
func (m Mask) With(f Mask) Mask { return m | f }

// Without returns m with f cleared.
func (m Mask) Without(f Mask) Mask { return m &^ f }

// String formats the mask in hexadecimal.
func (m Mask) String() string { return "0x" + strconv.FormatUint(uint64(m), 16) }

// Flags names up to 64 permutation bits in declaration order.
type Flags struct {
	names []string
	index map[string]int
}

// NewFlags assigns bit i to names[i]. Duplicate or empty names and more
// than 64 flags panic.
func NewFlags(names ...string) Flags {
	if len(names) > 64 {
		panic(fmt.Sprintf("program: %d flags exceed the 64-bit mask", len(names)))
	}
	f := Flags{names: append([]string(nil), names...), index: make(map[string]int, len(names))}
	for i, n := range names {
		if n == "" {
			panic("program: empty flag name")
		}
		if _, dup := f.index[n]; dup {
			panic("program: duplicate flag " + n)
		}
		f.index[n] = i
	}
	return f
}

// Bit returns the mask of one named flag. Unknown names panic.
func (f Flags) Bit(name string) Mask {
	i, ok := f.index[name]
	if !ok {
		panic("program: unknown flag " + name)
	}
	return 1 << uint(i)
}

// Mask returns the union of the named flags.
func (f Flags) Mask(names ...string) Mask {
	var m Mask
	for _, n := range names {
		m |= f.Bit(n)
	}
	return m
}

// Names returns the flags set in m in declaration order.
func (f Flags) Names(m Mask) []string {
	var out []string
	for i, n := range f.names {
		if m&(1<<uint(i)) != 0 {
			out = append(out, n)
		}
	}
	return out
}

// Format renders m as "A|B", or "none" when no named flag is set.
func (f Flags) Format(m Mask) string {
	names := f.Names(m)
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Prelude renders every flag as a WGSL bool constant for m, one per line.
func (f Flags) Prelude(m Mask) string {
	var sb strings.Builder
	for i, n := range f.names {
		fmt.Fprintf(&sb, "const %s: bool = %t;\n", n, m&(1<<uint(i)) != 0)
	}
	return sb.String()
}
