package cache

import "testing"

// Keys mimic permutation masks: a few hot variants and a long tail.
func benchKey(i int) uint64 {
	if i%4 != 0 {
		return uint64(i % 8)
	}
	return uint64(1) << (i % 48)
}

func BenchmarkHotVariantHit(b *testing.B) {
	c := New[uint64, []byte](128, nil)
	for i := 0; i < 64; i++ {
		c.Set(benchKey(i), make([]byte, 16))
	}
	hot := benchKey(1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := c.Get(hot); !ok {
			b.Fatal("hot variant missing")
		}
	}
}

func BenchmarkBuildOnMiss(b *testing.B) {
	var released int
	c := New[uint64, []byte](16, func(uint64, []byte) { released++ })

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.GetOrCreate(benchKey(i), func() ([]byte, error) {
			return make([]byte, 16), nil
		})
	}
	b.StopTimer()
	b.ReportMetric(float64(released)/float64(b.N), "evictions/op")
}
