package ytdash

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultClusterOutput = "cluster_3d_visualization.html"

var (
	clusterInput      string
	clusterOutput     string
	clusterCount      int
	clusterTextColumn string
)

// ClusterCommentsCmd: clusters comments from a file or the store and writes a report
var ClusterCommentsCmd = &cobra.Command{
	Use:   "cluster-comments",
	Short: "Cluster comments in 3D and write an HTML or JSON report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		texts, source, err := loadClusterInput(ctx, clusterInput, clusterTextColumn)
		if err != nil {
			return err
		}
		Logger.Info("loaded comments", "source", source, "rows", len(texts))

		data, err := AnalyzeComments(texts, Options{
			Clusters: clusterCount,
			Seed:     Config.ClusterSeed,
			Log:      Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to cluster comments: %w", err)
		}
		Logger.Info("clustered comments",
			"comments", len(data.Comments), "clusters", data.NClusters,
			"explained_variance", fmt.Sprintf("%.3f", data.ExplainedVariance),
			"sizes", clusterSizes(data))

		if err := writeClusterOutput(clusterOutput, data, source); err != nil {
			return err
		}
		Logger.Info("report written", "output", clusterOutput)
		return nil
	},
}

func init() {
	flags := ClusterCommentsCmd.Flags()
	flags.StringVarP(&clusterInput, "input", "i", "", "input CSV or JSON file (default: the comment store)")
	flags.StringVarP(&clusterOutput, "output", "o", defaultClusterOutput, "output file, .html or .json")
	flags.IntVarP(&clusterCount, "clusters", "c", DefaultCLIClusters, "number of clusters")
	flags.StringVarP(&clusterTextColumn, "text-column", "t", "", "text column name (auto-detected if not specified)")
}

// loadClusterInput returns the comment texts of the input file, or of the
// store when no file is given, together with a label for the source.
func loadClusterInput(ctx context.Context, path, column string) ([]string, string, error) {
	if path == "" {
		store, err := openConfiguredStore(ctx)
		if err != nil {
			return nil, "", err
		}
		defer func() {
			if err := store.Close(); err != nil {
				Logger.Error("failed to close database", "error", err)
			}
		}()
		n, err := store.Count(ctx)
		if err != nil {
			return nil, "", err
		}
		if n == 0 {
			return nil, "", ErrNoComments
		}
		comments, err := store.RecentComments(ctx, n)
		if err != nil {
			return nil, "", err
		}
		texts := make([]string, len(comments))
		for i, c := range comments {
			texts[i] = c.Text
		}
		return texts, "comment store", nil
	}

	table, err := LoadTable(path)
	if err != nil {
		return nil, "", err
	}
	texts, err := table.Texts(column)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read comments from %s: %w", path, err)
	}
	return texts, filepath.Base(path), nil
}

func clusterSizes(data *ClusterData) []int {
	sizes := make([]int, data.NClusters)
	for _, label := range data.ClusterLabels {
		sizes[label]++
	}
	return sizes
}

// writeClusterOutput writes the payload as JSON or as an HTML report,
// depending on the file extension.
func writeClusterOutput(path string, data *ClusterData, source string) error {
	var content []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		jsonData, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal clusters: %w", err)
		}
		content = jsonData
	} else {
		page, err := generateClusterHTML(data, source)
		if err != nil {
			return err
		}
		content = []byte(page)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
