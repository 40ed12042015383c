package ytdash

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// AnalysisCache keeps dashboard results for a fixed time under the
// fingerprint of the comment table. Entries are never refreshed early; a new
// fingerprint simply misses.
type AnalysisCache struct {
	c *gocache.Cache
}

func NewAnalysisCache(ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{c: gocache.New(ttl, 2*ttl)}
}

func dashboardKey(fingerprint string) string {
	return "dashboard:" + fingerprint
}

func (a *AnalysisCache) Dashboard(fingerprint string) (*Dashboard, bool) {
	v, ok := a.c.Get(dashboardKey(fingerprint))
	if !ok {
		return nil, false
	}
	d, ok := v.(*Dashboard)
	return d, ok
}

func (a *AnalysisCache) SetDashboard(fingerprint string, d *Dashboard) {
	a.c.SetDefault(dashboardKey(fingerprint), d)
}

// Flush drops every entry.
func (a *AnalysisCache) Flush() {
	a.c.Flush()
}
