package lowrank

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hi-paris/denslowrank/common"
	"github.com/hi-paris/denslowrank/model"
)

// Estimate denoises the empirical probability matrix Y2 block by
// block and returns a normalized estimate of the true probability
// matrix.
//
// n is the size of the sample slice Y2 was estimated from and d a
// bound on the matrix dimensions. Y1 must be estimated from a sample
// slice disjoint from Y2's; it is used only to derive the row/column
// bucket structure. When n <= d*ln(d) the sample is too small for the
// low-rank step to help and the plain average (Y1+Y2)/2 is returned
// unchanged.
//
// Rank truncation can produce negative block entries; those are
// clamped to zero before the final normalization, so the returned
// matrix is a valid probability matrix. A zero total at normalization
// time fails with ErrorDegenerateInput.
func Estimate(n, d int, Y1, Y2 *mat.Dense, cfg model.Config) (*mat.Dense, error) {
	if Y1 == nil || Y2 == nil || n <= 0 || d <= 0 {
		return nil, common.ErrorInvalidValue
	}
	d1, d2 := Y1.Dims()
	if r2, c2 := Y2.Dims(); r2 != d1 || c2 != d2 {
		return nil, common.ErrorShapeMismatch
	}

	if float64(n) <= float64(d)*math.Log(float64(d)) {
		res := mat.NewDense(d1, d2, nil)
		res.Add(Y1, Y2)
		res.Scale(0.5, res)
		return res, nil
	}

	levels := int(math.Floor(math.Log2(float64(d))))
	rows := Partition(rowSums(Y1), levels)
	cols := Partition(colSums(Y1), levels)

	res := mat.NewDense(d1, d2, nil)

	type pair struct{ t, u int }
	blocks := make([]pair, 0, (levels+1)*(levels+1))
	for t := 0; t <= levels; t++ {
		for u := 0; u <= levels; u++ {
			blocks = append(blocks, pair{t, u})
		}
	}

	denoise := func(b pair) error {
		return denoiseBlock(res, Y2, rows[b.t], cols[b.u], b.t, b.u, n, d, cfg)
	}

	if cfg.Workers > 1 {
		// Blocks write to disjoint index sets of res, so workers only
		// need a join, not locking.
		jobs := make(chan pair)
		errs := make(chan error, len(blocks))
		var wg sync.WaitGroup
		for w := 0; w < cfg.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for b := range jobs {
					if err := denoise(b); err != nil {
						errs <- err
					}
				}
			}()
		}
		for _, b := range blocks {
			jobs <- b
		}
		close(jobs)
		wg.Wait()
		close(errs)
		if err := <-errs; err != nil {
			return nil, err
		}
	} else {
		for _, b := range blocks {
			if err := denoise(b); err != nil {
				return nil, err
			}
		}
	}

	var total float64
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			v := res.At(i, j)
			if v < 0 {
				res.Set(i, j, 0)
				continue
			}
			total += v
		}
	}
	if total == 0 {
		return nil, common.ErrorDegenerateInput
	}
	res.Scale(1/total, res)
	return res, nil
}

// denoiseBlock fills the (I, J) block of res from Y2, either verbatim
// when the block's total mass is below the energy cutoff, or with its
// hard-thresholded SVD reconstruction. Empty buckets contribute
// nothing.
func denoiseBlock(res, Y2 *mat.Dense, I, J []int, t, u, n, d int, cfg model.Config) error {
	if len(I) == 0 || len(J) == 0 {
		return nil
	}

	M := mat.NewDense(len(I), len(J), nil)
	for i, row := range I {
		for j, col := range J {
			M.Set(i, j, Y2.At(row, col))
		}
	}

	logd := math.Log(float64(d))
	cutoff := 2 * cfg.Cbar * cfg.Alpha * logd / (float64(n) * math.Ln2)
	if floats.Sum(M.RawMatrix().Data) < cutoff {
		// Negligible mass: keep the empirical values, the SVD would
		// only amplify noise here.
		for i, row := range I {
			for j, col := range J {
				res.Set(row, col, M.At(i, j))
			}
		}
		return nil
	}

	tau := logd * math.Sqrt(cfg.Cstar*math.Exp2(1-float64(min(t, u)))/float64(n))

	var svd mat.SVD
	if ok := svd.Factorize(M, mat.SVDThin); !ok {
		return common.ErrorDegenerateInput
	}
	s := svd.Values(nil)
	l := 0
	for _, sv := range s {
		if sv >= tau {
			l++
		}
	}
	if l == 0 {
		// Every singular value fell below tau: the reconstruction is
		// the zero block, which res already holds.
		return nil
	}

	var u1, v1 mat.Dense
	svd.UTo(&u1)
	svd.VTo(&v1)

	var H mat.Dense
	H.Product(
		u1.Slice(0, len(I), 0, l),
		mat.NewDiagDense(l, s[:l]),
		v1.Slice(0, len(J), 0, l).T(),
	)

	for i, row := range I {
		for j, col := range J {
			res.Set(row, col, H.At(i, j))
		}
	}
	return nil
}

func rowSums(m *mat.Dense) []float64 {
	r, _ := m.Dims()
	sums := make([]float64, r)
	for i := 0; i < r; i++ {
		sums[i] = floats.Sum(m.RawRowView(i))
	}
	return sums
}

func colSums(m *mat.Dense) []float64 {
	r, c := m.Dims()
	sums := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			sums[j] += m.At(i, j)
		}
	}
	return sums
}
