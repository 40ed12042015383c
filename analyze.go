package ytdash

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

const (
	DefaultWebClusters = 6
	DefaultCLIClusters = 10
	DefaultSeed        = 42
)

// Options controls one clustering run.
type Options struct {
	// Clusters is the requested cluster count before capping.
	Clusters int
	Seed     int64
	// Words extracts keyword candidates. Nil selects the default extractor.
	Words WordExtractor
	Log   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Clusters <= 0 {
		o.Clusters = DefaultWebClusters
	}
	if o.Log == nil {
		o.Log = Logger
	}
	if o.Words == nil {
		o.Words = newWordExtractor(o.Log)
	}
	return o
}

// AnalyzeComments cleans, vectorizes, projects, clusters and summarizes raw
// comment texts. It returns ErrInsufficientData when fewer than two comments
// survive cleaning.
func AnalyzeComments(raw []string, opts Options) (*ClusterData, error) {
	opts = opts.withDefaults()

	comments := CleanAll(raw)
	if len(comments) < 2 {
		return nil, ErrInsufficientData
	}

	vec, matrix, err := FitTransform(comments)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize comments: %w", err)
	}

	proj, err := ReducePCA(matrix, plotDimension)
	if err != nil {
		return nil, fmt.Errorf("failed to reduce dimensions: %w", err)
	}

	k := EffectiveClusterCount(opts.Clusters, len(comments))
	km, err := KMeans(proj.Points, k, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster comments: %w", err)
	}

	geo := computeGeometry(proj.Points, km.Labels, k)
	summaries := SummarizeClusters(comments, km.Labels, k, vec, opts.Words, geo)
	opts.Log.Debug("clustered comments",
		"comments", len(comments), "requested", opts.Clusters, "clusters", k,
		"vocabulary", len(vec.Terms()), "explained_variance", proj.ExplainedVariance)

	return packageClusters(proj, km.Labels, comments, k, geo, summaries, opts.Seed), nil
}

// PerformClustering runs the analysis over stored comments and degrades to a
// nil result on any failure, including panics from the numeric code.
func PerformClustering(comments []Comment, opts Options) (data *ClusterData) {
	opts = opts.withDefaults()
	defer func() {
		if r := recover(); r != nil {
			opts.Log.Error("clustering panicked", "comments", len(comments), "panic", r, "stack", string(debug.Stack()))
			data = nil
		}
	}()

	texts := make([]string, len(comments))
	for i, c := range comments {
		texts[i] = c.Text
	}
	data, err := AnalyzeComments(texts, opts)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			opts.Log.Info("not enough comments to cluster", "comments", len(comments))
		} else {
			opts.Log.Error("clustering failed", "comments", len(comments), "error", err)
		}
		return nil
	}
	return data
}
