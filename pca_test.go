package ytdash

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestReducePCALine(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})

	proj, err := ReducePCA(x, 1)
	if err != nil {
		t.Fatalf("ReducePCA: %v", err)
	}
	if r, c := proj.Points.Dims(); r != 4 || c != 1 {
		t.Fatalf("Dims = %d, %d; want 4, 1", r, c)
	}
	if math.Abs(proj.ExplainedVariance-1) > 1e-9 {
		t.Errorf("ExplainedVariance = %v; want 1", proj.ExplainedVariance)
	}
	want := []float64{-1.5 * math.Sqrt2, -0.5 * math.Sqrt2, 0.5 * math.Sqrt2, 1.5 * math.Sqrt2}
	for i, w := range want {
		if got := proj.Points.At(i, 0); math.Abs(got-w) > 1e-9 {
			t.Errorf("Points[%d] = %v; want %v", i, got, w)
		}
	}
}

func TestReducePCAPadsMissingComponents(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{0, 1, 1, 0, 2, 2})

	proj, err := ReducePCA(x, 3)
	if err != nil {
		t.Fatalf("ReducePCA: %v", err)
	}
	if r, c := proj.Points.Dims(); r != 3 || c != 3 {
		t.Fatalf("Dims = %d, %d; want 3, 3", r, c)
	}
	for i := 0; i < 3; i++ {
		if got := proj.Points.At(i, 2); got != 0 {
			t.Errorf("Points[%d][2] = %v; want 0", i, got)
		}
	}
	if math.Abs(proj.ExplainedVariance-1) > 1e-9 {
		t.Errorf("ExplainedVariance = %v; want 1", proj.ExplainedVariance)
	}
}

func TestReducePCAConstantInput(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1})

	proj, err := ReducePCA(x, 3)
	if err != nil {
		t.Fatalf("ReducePCA: %v", err)
	}
	if proj.ExplainedVariance != 0 {
		t.Errorf("ExplainedVariance = %v; want 0", proj.ExplainedVariance)
	}
}
