package ytdash

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	jitterRatio   = 0.02
	emptyRadius   = 0.1
	plotDimension = 3
)

// ClusterData is the payload handed to the 3D scatter plot.
type ClusterData struct {
	X                 []float64        `json:"x"`
	Y                 []float64        `json:"y"`
	Z                 []float64        `json:"z"`
	ClusterLabels     []int            `json:"cluster_labels"`
	Comments          []string         `json:"comments"`
	ExplainedVariance float64          `json:"explained_variance"`
	NClusters         int              `json:"n_clusters"`
	ClusterCenters    [][]float64      `json:"cluster_centers"`
	ClusterRadii      []float64        `json:"cluster_radii"`
	ClusterAnalyses   []ClusterSummary `json:"cluster_analyses"`
}

// clusterGeometry holds a center and radius for every cluster id.
type clusterGeometry struct {
	Centers [][]float64
	Radii   []float64
}

// computeGeometry returns the member mean and the largest member distance from
// it for each cluster. Clusters without members sit at the origin with a
// small default radius.
func computeGeometry(points *mat.Dense, labels []int, k int) clusterGeometry {
	_, d := points.Dims()
	geo := clusterGeometry{
		Centers: make([][]float64, k),
		Radii:   make([]float64, k),
	}
	counts := make([]int, k)
	for c := range geo.Centers {
		geo.Centers[c] = make([]float64, d)
	}
	for i, c := range labels {
		floats.Add(geo.Centers[c], points.RawRowView(i))
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			geo.Radii[c] = emptyRadius
			continue
		}
		floats.Scale(1/float64(counts[c]), geo.Centers[c])
	}
	for i, c := range labels {
		if dist := floats.Distance(points.RawRowView(i), geo.Centers[c], 2); dist > geo.Radii[c] {
			geo.Radii[c] = dist
		}
	}
	return geo
}

// jitterPoints returns a copy of points with Gaussian noise added. The noise
// deviation is a fixed share of the mean per-axis range.
func jitterPoints(points *mat.Dense, seed int64) *mat.Dense {
	n, d := points.Dims()
	jittered := mat.DenseCopyOf(points)
	if n == 0 {
		return jittered
	}

	ranges := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, points)
		ranges[j] = floats.Max(col) - floats.Min(col)
	}
	scale := floats.Sum(ranges) / float64(d) * jitterRatio
	if scale == 0 || math.IsNaN(scale) {
		return jittered
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		row := jittered.RawRowView(i)
		for j := range row {
			row[j] += rng.NormFloat64() * scale
		}
	}
	return jittered
}

// packageClusters assembles the plot payload.
func packageClusters(proj Projection, labels []int, comments []string, k int, geo clusterGeometry, summaries []ClusterSummary, seed int64) *ClusterData {
	jittered := jitterPoints(proj.Points, seed)
	n, _ := jittered.Dims()
	data := &ClusterData{
		X:                 make([]float64, n),
		Y:                 make([]float64, n),
		Z:                 make([]float64, n),
		ClusterLabels:     labels,
		Comments:          comments,
		ExplainedVariance: proj.ExplainedVariance,
		NClusters:         k,
		ClusterCenters:    geo.Centers,
		ClusterRadii:      geo.Radii,
		ClusterAnalyses:   summaries,
	}
	mat.Col(data.X, 0, jittered)
	mat.Col(data.Y, 1, jittered)
	mat.Col(data.Z, 2, jittered)
	return data
}
