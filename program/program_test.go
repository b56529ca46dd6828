package program

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpures/resource"
)

func TestFlags(t *testing.T) {
	f := NewFlags("SKINNED", "NORMAL_MAP", "FOG")
	m := f.Mask("SKINNED", "FOG")
	if m != 0b101 {
		t.Fatalf("Mask = %s, want 0x5", m)
	}
	if !m.Has(f.Bit("FOG")) || m.Has(f.Bit("NORMAL_MAP")) {
		t.Error("Has reports wrong bits")
	}
	if got := f.Format(m); got != "SKINNED|FOG" {
		t.Errorf("Format = %q", got)
	}
	if got := f.Format(0); got != "none" {
		t.Errorf("Format(0) = %q", got)
	}
	prelude := f.Prelude(m)
	for _, want := range []string{
		"const SKINNED: bool = true;",
		"const NORMAL_MAP: bool = false;",
		"const FOG: bool = true;",
	} {
		if !strings.Contains(prelude, want) {
			t.Errorf("Prelude missing %q:\n%s", want, prelude)
		}
	}
	if m.Without(f.Bit("FOG")).With(f.Bit("NORMAL_MAP")) != 0b011 {
		t.Error("With/Without mismatch")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for duplicate flag")
		}
	}()
	NewFlags("A", "A")
}

func TestCacheOwnsPrograms(t *testing.T) {
	built := map[Mask]int{}
	released := map[Mask]int{}
	type prog struct{ m Mask }

	c := NewCache(2,
		func(m Mask) (*prog, error) { built[m]++; return &prog{m}, nil },
		func(p *prog) { released[p.m]++ },
	)

	p1, _ := c.Get(1)
	p1again, _ := c.Get(1)
	if p1 != p1again || built[1] != 1 {
		t.Fatalf("mask 1 built %d times", built[1])
	}
	c.Get(2)
	c.Get(1)
	c.Get(3) // evicts down to one entry, keeping the newest

	if released[2] != 1 || released[1] != 1 {
		t.Errorf("released = %v", released)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Close()
	c.Close()
	if released[3] != 1 {
		t.Errorf("Close did not release mask 3: %v", released)
	}
	if _, err := c.Get(1); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after Close = %v", err)
	}
}

func TestCacheBuildErrorRetries(t *testing.T) {
	fail := true
	c := NewCache(0, func(m Mask) (int, error) {
		if fail {
			return 0, errors.New("compile error")
		}
		return int(m), nil
	}, nil)

	if _, err := c.Get(4); err == nil || !strings.Contains(err.Error(), "0x4") {
		t.Fatalf("err = %v", err)
	}
	fail = false
	if v, err := c.Get(4); err != nil || v != 4 {
		t.Errorf("Get after fix = %d, %v", v, err)
	}
}

type moduleDevice struct {
	noop.Device
	sources   []string
	destroyed int
}

func (d *moduleDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.sources = append(d.sources, desc.Source.WGSL)
	return d.Device.CreateShaderModule(desc)
}

func (d *moduleDevice) DestroyShaderModule(hal.ShaderModule) { d.destroyed++ }

func TestModuleCache(t *testing.T) {
	dev := &moduleDevice{}
	alloc := resource.NewAllocator(dev, resource.AllocatorConfig{})
	flags := NewFlags("FOG")

	mods := NewModuleCache(alloc, "mesh", func(m Mask) string {
		return flags.Prelude(m) + "@vertex fn main() {}"
	}, 4)

	mod, err := mods.Get(flags.Mask("FOG"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !mod.IsValid() {
		t.Fatal("module handle invalid")
	}
	if len(dev.sources) != 1 || !strings.HasPrefix(dev.sources[0], "const FOG: bool = true;") {
		t.Errorf("sources = %q", dev.sources)
	}
	mods.Close()
	if dev.destroyed != 1 {
		t.Errorf("DestroyShaderModule called %d times, want 1", dev.destroyed)
	}
}
