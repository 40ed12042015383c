package ytdash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveReports(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.html")
	if err := os.WriteFile(report, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	removed := removeReports([]string{report, filepath.Join(dir, "missing.html"), dir})
	if removed != 1 {
		t.Errorf("removed = %d; want 1", removed)
	}
	if _, err := os.Stat(report); !os.IsNotExist(err) {
		t.Errorf("report still exists: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory was touched: %v", err)
	}
}
