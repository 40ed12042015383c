package ytdash

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

var testLogger = slog.New(slog.DiscardHandler)

func testOptions() Options {
	return Options{Clusters: DefaultWebClusters, Seed: DefaultSeed, Words: regexExtractor{}, Log: testLogger}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), testLogger, "sqlite3", filepath.Join(t.TempDir(), "comments.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func timeRef(s string) *time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	ts = ts.UTC()
	return &ts
}

func stringRef(s string) *string {
	return &s
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
