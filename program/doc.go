// Package program caches shader programs by permutation.
//
// A permutation is a [Mask] of feature flags. [Flags] names the bits and
// renders them as WGSL constants, and [Cache] builds one program per mask on
// first use. The cache owns what it builds: evicted, deleted and cleared
// programs are passed to the release function.
//
//	flags := program.NewFlags("SKINNED", "NORMAL_MAP", "FOG")
//	modules := program.NewModuleCache(alloc, "mesh", func(m program.Mask) string {
//		return flags.Prelude(m) + meshWGSL
//	}, 32)
//	mod, err := modules.Get(flags.Mask("SKINNED", "FOG"))
package program
