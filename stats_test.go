package ytdash

import (
	"strings"
	"testing"
)

func engagementComments() []Comment {
	return []Comment{
		{CommentID: "a", Author: "alice", Text: "meh", LikeCount: 0, ReplyCount: 0},
		{CommentID: "b", Author: "bob", Text: "fine", LikeCount: 1, ReplyCount: 0},
		{CommentID: "c", Author: "carol", Text: "great", LikeCount: 20, ReplyCount: 5, CreatedAt: timeRef("2024-01-01T00:00:00Z")},
	}
}

func TestComputeStats(t *testing.T) {
	s := computeStats(engagementComments())
	if s.TotalComments != 3 || s.TotalLikes != 21 || s.TotalReplies != 5 {
		t.Errorf("totals = %+v", s)
	}
	if s.MaxLikes != 20 || s.MaxReplies != 5 {
		t.Errorf("max = %d, %d; want 20, 5", s.MaxLikes, s.MaxReplies)
	}
	if !almostEqual(s.AvgLikes, 7) || !almostEqual(s.AvgReplies, 5.0/3) {
		t.Errorf("averages = %v, %v", s.AvgLikes, s.AvgReplies)
	}
}

func TestAnalyzeEngagement(t *testing.T) {
	comments := engagementComments()
	a := analyzeEngagement(comments, computeStats(comments))
	if a.HighEngagementCount != 1 || a.LowEngagementCount != 2 {
		t.Errorf("high, low = %d, %d; want 1, 2", a.HighEngagementCount, a.LowEngagementCount)
	}
	if a.EngagementRatio != 33.3 {
		t.Errorf("EngagementRatio = %v; want 33.3", a.EngagementRatio)
	}
	if analyzeEngagement(nil, &Stats{}) != nil {
		t.Error("analysis of no comments should be nil")
	}
}

func TestAdvise(t *testing.T) {
	comments := engagementComments()
	s := computeStats(comments)
	advice := Advise(comments, s, analyzeEngagement(comments, s))
	if len(advice) != 2 {
		t.Fatalf("advice = %q; want 2 items", advice)
	}
	if !strings.Contains(advice[0], "返信数が少ない") {
		t.Errorf("advice[0] = %q; want the replies advice", advice[0])
	}
	if !strings.Contains(advice[1], "20いいね、5返信") {
		t.Errorf("advice[1] = %q; want the top comment callout", advice[1])
	}

	quiet := []Comment{{Text: "a"}, {Text: "b"}}
	qs := computeStats(quiet)
	if got := Advise(quiet, qs, analyzeEngagement(quiet, qs)); len(got) != 3 {
		t.Errorf("advice for silent comments = %q; want 3 items", got)
	}

	if got := Advise(nil, nil, nil); got != nil {
		t.Errorf("advice without comments = %q; want nil", got)
	}
}

func TestBuildGraph(t *testing.T) {
	long := strings.Repeat("あ", 60)
	g := buildGraph([]Comment{
		{Author: "alice", Text: long, LikeCount: 2, ReplyCount: 1, CreatedAt: timeRef("2024-01-01T00:00:00Z")},
		{Author: "bob", Text: "short"},
	})
	if g.X[0] != 2 || g.Y[0] != 1 || g.Z[0] != 1704067200 || g.Colors[0] != g.Z[0] {
		t.Errorf("first point = %d %d %d %d", g.X[0], g.Y[0], g.Z[0], g.Colors[0])
	}
	if g.Z[1] != 0 {
		t.Errorf("undated Z = %d; want 0", g.Z[1])
	}
	want := "Author: alice<br>Likes: 2<br>Replies: 1<br>Comment: " + strings.Repeat("あ", 50) + "..."
	if g.Text[0] != want {
		t.Errorf("hover text = %q; want %q", g.Text[0], want)
	}
}

func TestBuildDashboard(t *testing.T) {
	empty := BuildDashboard(nil, testOptions())
	if empty.Stats != nil || empty.Graph != nil || empty.Clusters != nil {
		t.Errorf("empty dashboard = %+v", empty)
	}

	d := BuildDashboard(engagementComments(), testOptions())
	if d.Stats == nil || d.Analysis == nil || d.Graph == nil || len(d.Advice) == 0 {
		t.Fatalf("dashboard missing sections: %+v", d)
	}
	if d.Clusters == nil {
		t.Fatal("dashboard of three comments has no clusters")
	}
	if d.Clusters.NClusters != 2 {
		t.Errorf("NClusters = %d; want 2", d.Clusters.NClusters)
	}

	single := BuildDashboard(engagementComments()[:1], testOptions())
	if single.Stats == nil || single.Clusters != nil {
		t.Errorf("single comment dashboard = stats %v clusters %v; want stats and no clusters", single.Stats, single.Clusters)
	}
}
