package uniform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/resource"
)

// Block errors.
var (
	// ErrUnknownMember is returned when setting a member the block lacks.
	ErrUnknownMember = errors.New("uniform: unknown member")

	// ErrKindMismatch is returned when a value's kind differs from the member's.
	ErrKindMismatch = errors.New("uniform: kind mismatch")

	// ErrInvalidBuffer is returned when uploading into an invalid or too small buffer.
	ErrInvalidBuffer = errors.New("uniform: invalid destination buffer")
)

// Member declares one field of a block.
type Member struct {
	Name string
	Kind Kind
}

type member struct {
	Member
	offset int
}

// Block is a named uniform block laid out with std140 rules.
// A Block is not safe for concurrent use.
type Block struct {
	name    string
	members []member
	index   map[string]int
	data    []byte
	dirty   bool
}

// NewBlock lays out members in order. Duplicate names and invalid kinds panic.
func NewBlock(name string, members ...Member) *Block {
	b := &Block{name: name, index: make(map[string]int, len(members)), dirty: true}
	off := 0
	for i, m := range members {
		if m.Kind == KindInvalid || m.Kind > KindMat4 {
			panic(fmt.Sprintf("uniform: member %q has invalid kind %d", m.Name, m.Kind))
		}
		if _, dup := b.index[m.Name]; dup {
			panic("uniform: duplicate member " + m.Name)
		}
		a := m.Kind.align()
		off = (off + a - 1) &^ (a - 1)
		b.members = append(b.members, member{Member: m, offset: off})
		b.index[m.Name] = i
		off += m.Kind.size()
	}
	b.data = make([]byte, (off+15)&^15)
	return b
}

// Name returns the block name.
func (b *Block) Name() string { return b.name }

// Size returns the block size in bytes, a multiple of 16.
func (b *Block) Size() int { return len(b.data) }

// Offset returns the byte offset of a member.
func (b *Block) Offset(name string) (int, bool) {
	i, ok := b.index[name]
	if !ok {
		return 0, false
	}
	return b.members[i].offset, true
}

// Set stores v into the named member.
func (b *Block) Set(name string, v Value) error {
	i, ok := b.index[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMember, b.name, name)
	}
	m := b.members[i]
	if v.kind != m.Kind {
		return fmt.Errorf("%w: %s.%s is %s, got %s", ErrKindMismatch, b.name, name, m.Kind, v.kind)
	}
	dst := b.data[m.offset : m.offset+m.Kind.size()]
	switch v.kind {
	case KindInt:
		binary.LittleEndian.PutUint32(dst, uint32(v.i)) //nolint:gosec // bit reinterpretation
	case KindUint:
		binary.LittleEndian.PutUint32(dst, v.u)
	case KindMat4:
		// WGSL matrices are column-major.
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				putFloat(dst[(c*4+r)*4:], v.f[r*4+c])
			}
		}
	default:
		for j := 0; j < len(dst)/4; j++ {
			putFloat(dst[j*4:], v.f[j])
		}
	}
	b.dirty = true
	return nil
}

// Get reads the named member back.
func (b *Block) Get(name string) (Value, bool) {
	i, ok := b.index[name]
	if !ok {
		return Value{}, false
	}
	m := b.members[i]
	src := b.data[m.offset:]
	v := Value{kind: m.Kind}
	switch m.Kind {
	case KindInt:
		v.i = int32(binary.LittleEndian.Uint32(src)) //nolint:gosec // bit reinterpretation
	case KindUint:
		v.u = binary.LittleEndian.Uint32(src)
	case KindMat4:
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				v.f[r*4+c] = getFloat(src[(c*4+r)*4:])
			}
		}
	default:
		for j := 0; j < m.Kind.size()/4; j++ {
			v.f[j] = getFloat(src[j*4:])
		}
	}
	return v, true
}

// Bytes returns the packed block. The slice aliases the block.
func (b *Block) Bytes() []byte { return b.data }

// Dirty reports whether the block changed since the last Upload.
func (b *Block) Dirty() bool { return b.dirty }

// Upload writes the block to buf through queue when it changed since the
// last upload. It reports whether a write happened.
func (b *Block) Upload(queue hal.Queue, buf *resource.Buffer) (bool, error) {
	if !b.dirty {
		return false, nil
	}
	if buf == nil || !buf.IsValid() || buf.Size() < uint64(len(b.data)) {
		return false, fmt.Errorf("%w: block %s needs %d bytes", ErrInvalidBuffer, b.name, len(b.data))
	}
	if err := queue.WriteBuffer(buf.Get(), 0, b.data); err != nil {
		return false, fmt.Errorf("uniform: write block %s: %w", b.name, err)
	}
	b.dirty = false
	return true, nil
}

func putFloat(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func getFloat(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}
