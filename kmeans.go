package ytdash

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	maxClusters      = 6
	kmeansRestarts   = 10
	kmeansIterations = 300
	kmeansTolerance  = 1e-4
)

// KMeansResult is the best clustering found over all restarts.
type KMeansResult struct {
	Labels    []int
	Centroids *mat.Dense
	Inertia   float64
}

// EffectiveClusterCount caps the requested count at six. With fewer points
// than that it drops to half the number of points. The result is never
// below two.
func EffectiveClusterCount(requested, points int) int {
	k := min(requested, maxClusters)
	if points < k {
		k = max(2, points/2)
	}
	return max(2, k)
}

// KMeans clusters the rows of data into k groups. It runs k-means++ seeded
// Lloyd iterations from several starts and keeps the lowest inertia. The
// result depends only on data, k and seed.
func KMeans(data *mat.Dense, k int, seed int64) (KMeansResult, error) {
	n, _ := data.Dims()
	if k < 1 || n < k {
		return KMeansResult{}, fmt.Errorf("failed to cluster %d points into %d clusters", n, k)
	}

	rng := rand.New(rand.NewSource(seed))
	var best KMeansResult
	for run := 0; run < kmeansRestarts; run++ {
		centroids := initializeCentroidsKMeansPlusPlus(data, k, rng)
		result := lloyd(data, centroids)
		if run == 0 || result.Inertia < best.Inertia {
			best = result
		}
	}
	return best, nil
}

func lloyd(data, centroids *mat.Dense) KMeansResult {
	k, _ := centroids.Dims()
	assignments := assignPointsToClusters(data, centroids)
	for iteration := 0; iteration < kmeansIterations; iteration++ {
		newCentroids := updateCentroids(data, assignments, centroids)
		change := calculateCentroidChange(centroids, newCentroids)
		centroids = newCentroids
		assignments = assignPointsToClusters(data, centroids)
		if change <= kmeansTolerance {
			break
		}
	}
	// Labels always name the nearest final centroid.
	return KMeansResult{
		Labels:    assignments,
		Centroids: centroids,
		Inertia:   inertia(data, centroids, assignments, k),
	}
}

// initializeCentroidsKMeansPlusPlus picks the first centroid uniformly and each
// next one with probability proportional to the squared distance from the
// nearest centroid chosen so far.
func initializeCentroidsKMeansPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))

	distances := make([]float64, n)
	for i := 1; i < k; i++ {
		for j := 0; j < n; j++ {
			point := data.RawRowView(j)
			minDist := math.Inf(1)
			for c := 0; c < i; c++ {
				if dist := squaredDistance(point, centroids.RawRowView(c)); dist < minDist {
					minDist = dist
				}
			}
			distances[j] = minDist
		}

		totalWeight := floats.Sum(distances)
		if totalWeight == 0 {
			// All points coincide with chosen centroids.
			centroids.SetRow(i, data.RawRowView(rng.Intn(n)))
			continue
		}

		target := rng.Float64() * totalWeight
		cumWeight := 0.0
		chosen := n - 1
		for j, dist := range distances {
			cumWeight += dist
			if cumWeight > target {
				chosen = j
				break
			}
		}
		centroids.SetRow(i, data.RawRowView(chosen))
	}
	return centroids
}

// assignPointsToClusters assigns each point to its nearest centroid. Ties go
// to the lower cluster id.
func assignPointsToClusters(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	assignments := make([]int, n)
	for i := 0; i < n; i++ {
		point := data.RawRowView(i)
		minDist := math.Inf(1)
		for j := 0; j < k; j++ {
			if dist := squaredDistance(point, centroids.RawRowView(j)); dist < minDist {
				minDist = dist
				assignments[i] = j
			}
		}
	}
	return assignments
}

// updateCentroids averages the members of each cluster. A cluster that lost
// all members keeps its previous centroid.
func updateCentroids(data *mat.Dense, assignments []int, previous *mat.Dense) *mat.Dense {
	n, d := data.Dims()
	k, _ := previous.Dims()
	centroids := mat.NewDense(k, d, nil)
	counts := make([]int, k)

	for i := 0; i < n; i++ {
		floats.Add(centroids.RawRowView(assignments[i]), data.RawRowView(i))
		counts[assignments[i]]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			centroids.SetRow(c, previous.RawRowView(c))
			continue
		}
		floats.Scale(1/float64(counts[c]), centroids.RawRowView(c))
	}
	return centroids
}

// calculateCentroidChange returns the summed squared movement of all centroids.
func calculateCentroidChange(oldCentroids, newCentroids *mat.Dense) float64 {
	k, _ := oldCentroids.Dims()
	total := 0.0
	for c := 0; c < k; c++ {
		total += squaredDistance(oldCentroids.RawRowView(c), newCentroids.RawRowView(c))
	}
	return total
}

func inertia(data, centroids *mat.Dense, assignments []int, k int) float64 {
	total := 0.0
	for i, c := range assignments {
		if c < k {
			total += squaredDistance(data.RawRowView(i), centroids.RawRowView(c))
		}
	}
	return total
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
