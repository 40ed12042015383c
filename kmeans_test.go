package ytdash

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEffectiveClusterCount(t *testing.T) {
	cases := []struct {
		requested, points, want int
	}{
		{6, 6, 6},
		{6, 8, 6},
		{6, 11, 6},
		{10, 100, 6},
		{10, 7, 6},
		{3, 100, 3},
		{6, 2, 2},
		{6, 5, 2},
		{1, 100, 2},
		{4, 9, 4},
	}
	for _, tc := range cases {
		if got := EffectiveClusterCount(tc.requested, tc.points); got != tc.want {
			t.Errorf("EffectiveClusterCount(%d, %d) = %d; want %d", tc.requested, tc.points, got, tc.want)
		}
	}
}

func twoBlobs() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		0, 0,
		0.1, 0,
		0, 0.1,
		10, 10,
		10.1, 10,
		10, 10.1,
	})
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	result, err := KMeans(twoBlobs(), 2, 42)
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	l := result.Labels
	if l[0] != l[1] || l[1] != l[2] || l[3] != l[4] || l[4] != l[5] || l[0] == l[3] {
		t.Fatalf("Labels = %v; want the two blobs separated", l)
	}
	if result.Inertia > 0.1 {
		t.Errorf("Inertia = %v; want below 0.1", result.Inertia)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	a, err := KMeans(twoBlobs(), 3, 7)
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	b, err := KMeans(twoBlobs(), 3, 7)
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	if !reflect.DeepEqual(a.Labels, b.Labels) || a.Inertia != b.Inertia {
		t.Fatalf("runs with the same seed differ: %v / %v", a.Labels, b.Labels)
	}
}

func TestKMeansRejectsTooManyClusters(t *testing.T) {
	if _, err := KMeans(twoBlobs(), 7, 1); err == nil {
		t.Fatal("KMeans with k > n expected error")
	}
}

func TestUpdateCentroidsKeepsEmptyCluster(t *testing.T) {
	data := mat.NewDense(2, 1, []float64{1, 3})
	previous := mat.NewDense(2, 1, []float64{2, 42})

	got := updateCentroids(data, []int{0, 0}, previous)
	if got.At(0, 0) != 2 {
		t.Errorf("centroid 0 = %v; want 2", got.At(0, 0))
	}
	if got.At(1, 0) != 42 {
		t.Errorf("empty centroid = %v; want previous 42", got.At(1, 0))
	}
}

func TestAssignPointsTiesGoToLowerID(t *testing.T) {
	data := mat.NewDense(1, 1, []float64{1})
	centroids := mat.NewDense(2, 1, []float64{0, 2})
	if got := assignPointsToClusters(data, centroids); got[0] != 0 {
		t.Errorf("assignment = %d; want 0", got[0])
	}
}
