package lowrank_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hi-paris/denslowrank/lowrank"
)

func TestPartitionTotality(t *testing.T) {
	src := rand.NewSource(1)
	for _, d := range []int{1, 2, 7, 64, 1000} {
		levels := int(math.Floor(math.Log2(float64(d))))
		dist := distuv.Uniform{Min: 0, Max: 1.5, Src: src}

		p := make([]float64, d)
		for i := range p {
			p[i] = dist.Rand()
		}

		buckets := lowrank.Partition(p, levels)
		require.Len(t, buckets, levels+1)

		seen := make(map[int]int)
		for _, bucket := range buckets {
			for _, idx := range bucket {
				seen[idx]++
			}
		}
		require.Len(t, seen, d, "d=%d", d)
		for idx, cnt := range seen {
			assert.Equal(t, 1, cnt, "d=%d index %d", d, idx)
		}
	}
}

func TestPartitionBands(t *testing.T) {
	// levels = 3, bands: (1/2, inf), (1/4, 1/2], (1/8, 1/4], (0, 1/8].
	p := []float64{1.0, 2.0, 0.5, 0.3, 0.25, 0.2, 0.125, 0.1, 0}
	buckets := lowrank.Partition(p, 3)

	assert.Equal(t, []int{0, 1}, buckets[0])
	assert.Equal(t, []int{2, 3}, buckets[1])
	assert.Equal(t, []int{4, 5}, buckets[2])
	assert.Equal(t, []int{6, 7, 8}, buckets[3])
}

func TestPartitionEmptyBuckets(t *testing.T) {
	buckets := lowrank.Partition([]float64{0.9, 0.8}, 2)
	assert.Equal(t, []int{0, 1}, buckets[0])
	assert.Empty(t, buckets[1])
	assert.Empty(t, buckets[2])
}

func TestPartitionSingleLevel(t *testing.T) {
	// d = 1 means zero levels: a single bucket takes everything.
	buckets := lowrank.Partition([]float64{1}, 0)
	require.Len(t, buckets, 1)
	assert.Equal(t, []int{0}, buckets[0])
}
