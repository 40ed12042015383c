package ytdash

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Projection is the result of a principal component analysis.
type Projection struct {
	// Points holds one row per input row and one column per component.
	Points *mat.Dense
	// ExplainedVariance is the summed explained-variance ratio of the kept components.
	ExplainedVariance float64
}

// ReducePCA projects the rows of x onto their first components principal
// components. When x has fewer independent directions than requested, the
// missing columns are zero and contribute no variance.
func ReducePCA(x mat.Matrix, components int) (Projection, error) {
	n, d := x.Dims()
	if n == 0 || d == 0 {
		return Projection{}, fmt.Errorf("failed to reduce empty %dx%d matrix", n, d)
	}

	centered := mat.DenseCopyOf(x)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, centered)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return Projection{}, fmt.Errorf("failed to factorize %dx%d matrix", n, d)
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	kept := min(components, len(values))
	points := mat.NewDense(n, components, nil)
	for c := 0; c < kept; c++ {
		sign := componentSign(&v, c)
		for i := 0; i < n; i++ {
			points.Set(i, c, sign*u.At(i, c)*values[c])
		}
	}

	squares := make([]float64, len(values))
	for i, s := range values {
		squares[i] = s * s
	}
	total := floats.Sum(squares)
	explained := 0.0
	if total > 0 {
		explained = floats.Sum(squares[:kept]) / total
	}
	return Projection{Points: points, ExplainedVariance: explained}, nil
}

// componentSign makes the largest loading of component c positive so the
// projection does not depend on the sign the factorization happened to pick.
func componentSign(v *mat.Dense, c int) float64 {
	rows, _ := v.Dims()
	best, at := 0.0, 0
	for j := 0; j < rows; j++ {
		if a := math.Abs(v.At(j, c)); a > best {
			best, at = a, j
		}
	}
	if v.At(at, c) < 0 {
		return -1
	}
	return 1
}
