package ytdash

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// generatedReports are the files cluster-comments writes by default.
var generatedReports = []string{
	defaultClusterOutput,
	"cluster_3d_visualization.json",
}

// CleanCmd: removes generated reports
var CleanCmd = &cobra.Command{
	Use:   "clean [file]...",
	Short: "Remove generated report files",
	RunE: func(cmd *cobra.Command, args []string) error {
		removed := removeReports(append(append([]string{}, generatedReports...), args...))
		Logger.Info("cleaned reports", "removed", removed)
		return nil
	},
}

// removeReports deletes the given files and returns the number removed.
// Missing files and directories are skipped.
func removeReports(paths []string) int {
	removed := 0
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				Logger.Warn("failed to stat report", "path", path, "error", err)
			}
			continue
		}
		if info.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Clean(path)); err != nil {
			Logger.Warn("failed to remove report", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}
