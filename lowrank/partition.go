package lowrank

import "math"

// Partition groups the indices of marginal vector p into levels+1
// dyadic mass buckets. Level 0 takes everything above 1/2, level t in
// 1..levels-1 takes (2^{-t-1}, 2^{-t}], and the terminal level absorbs
// the tail p <= 2^{-levels}. A value exactly on a dyadic boundary
// falls in the band below it. Every index lands in exactly one bucket;
// empty buckets are legal.
func Partition(p []float64, levels int) [][]int {
	buckets := make([][]int, levels+1)
	for i, v := range p {
		t := bucketLevel(v, levels)
		buckets[t] = append(buckets[t], i)
	}
	return buckets
}

func bucketLevel(v float64, levels int) int {
	for t := 0; t < levels; t++ {
		if v > math.Exp2(-float64(t+1)) {
			return t
		}
	}
	return levels
}
