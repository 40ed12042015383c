package ytdash

import (
	"fmt"
	"math"
)

// GraphData feeds the likes/replies/time scatter on the dashboard.
type GraphData struct {
	X      []int    `json:"x"`
	Y      []int    `json:"y"`
	Z      []int64  `json:"z"`
	Text   []string `json:"text"`
	Colors []int64  `json:"colors"`
}

type Stats struct {
	TotalComments int     `json:"total_comments"`
	AvgLikes      float64 `json:"avg_likes"`
	AvgReplies    float64 `json:"avg_replies"`
	MaxLikes      int     `json:"max_likes"`
	MaxReplies    int     `json:"max_replies"`
	TotalLikes    int     `json:"total_likes"`
	TotalReplies  int     `json:"total_replies"`
}

// EngagementAnalysis compares each comment with the average likes and replies.
type EngagementAnalysis struct {
	HighEngagementCount int     `json:"high_engagement_count"`
	LowEngagementCount  int     `json:"low_engagement_count"`
	EngagementRatio     float64 `json:"engagement_ratio"`
	TopCommentLikes     int     `json:"top_comment_likes"`
	TopCommentReplies   int     `json:"top_comment_replies"`
}

// Dashboard is everything the dashboard page shows except the comment table.
type Dashboard struct {
	Graph    *GraphData          `json:"graph_data"`
	Stats    *Stats              `json:"stats"`
	Analysis *EngagementAnalysis `json:"analysis"`
	Advice   []string            `json:"advice"`
	Clusters *ClusterData        `json:"cluster_data"`
}

const hoverTextRunes = 50

func buildGraph(comments []Comment) *GraphData {
	g := &GraphData{
		X:      make([]int, len(comments)),
		Y:      make([]int, len(comments)),
		Z:      make([]int64, len(comments)),
		Text:   make([]string, len(comments)),
		Colors: make([]int64, len(comments)),
	}
	for i, c := range comments {
		var ts int64
		if c.CreatedAt != nil {
			ts = c.CreatedAt.Unix()
		}
		g.X[i] = c.LikeCount
		g.Y[i] = c.ReplyCount
		g.Z[i] = ts
		g.Colors[i] = ts
		g.Text[i] = fmt.Sprintf("Author: %s<br>Likes: %d<br>Replies: %d<br>Comment: %s...",
			c.Author, c.LikeCount, c.ReplyCount, truncateRunes(c.Text, hoverTextRunes))
	}
	return g
}

func computeStats(comments []Comment) *Stats {
	s := &Stats{TotalComments: len(comments)}
	if len(comments) == 0 {
		return s
	}
	for i, c := range comments {
		s.TotalLikes += c.LikeCount
		s.TotalReplies += c.ReplyCount
		if i == 0 || c.LikeCount > s.MaxLikes {
			s.MaxLikes = c.LikeCount
		}
		if i == 0 || c.ReplyCount > s.MaxReplies {
			s.MaxReplies = c.ReplyCount
		}
	}
	s.AvgLikes = float64(s.TotalLikes) / float64(len(comments))
	s.AvgReplies = float64(s.TotalReplies) / float64(len(comments))
	return s
}

// topByLikes returns the first comment with the most likes.
func topByLikes(comments []Comment) Comment {
	top := comments[0]
	for _, c := range comments[1:] {
		if c.LikeCount > top.LikeCount {
			top = c
		}
	}
	return top
}

func analyzeEngagement(comments []Comment, s *Stats) *EngagementAnalysis {
	if len(comments) == 0 {
		return nil
	}
	a := &EngagementAnalysis{
		TopCommentLikes:   s.MaxLikes,
		TopCommentReplies: s.MaxReplies,
	}
	for _, c := range comments {
		likes, replies := float64(c.LikeCount), float64(c.ReplyCount)
		switch {
		case likes > s.AvgLikes && replies > s.AvgReplies:
			a.HighEngagementCount++
		case likes < s.AvgLikes && replies < s.AvgReplies:
			a.LowEngagementCount++
		}
	}
	ratio := float64(a.HighEngagementCount) / float64(len(comments)) * 100
	a.EngagementRatio = math.Round(ratio*10) / 10
	return a
}

// Advise turns the statistics into recommendations for the channel owner.
// There is always at least one item.
func Advise(comments []Comment, s *Stats, a *EngagementAnalysis) []string {
	if len(comments) == 0 || s == nil || a == nil {
		return nil
	}
	var advice []string
	if s.AvgLikes < 5 {
		advice = append(advice, "平均いいね数が低い傾向にあります。コメントの内容をより具体的で価値のあるものにすることで、エンゲージメントを向上させることができます。")
	}
	if s.AvgReplies < 2 {
		advice = append(advice, "返信数が少ない傾向にあります。質問形式のコメントや議論を促す内容を増やすことで、コミュニティの活性化につながります。")
	}
	if float64(a.HighEngagementCount)/float64(len(comments))*100 < 20 {
		advice = append(advice, "高エンゲージメントコメントの割合が低いです。視聴者の興味を引く話題や、タイムリーな内容を意識することで改善できます。")
	}
	if a.HighEngagementCount > 0 {
		top := topByLikes(comments)
		advice = append(advice, fmt.Sprintf("最もエンゲージメントが高いコメントは%dいいね、%d返信を獲得しています。このようなコメントの特徴を分析し、同様のアプローチを他のコメントにも適用することをお勧めします。",
			top.LikeCount, top.ReplyCount))
	}
	if float64(s.MaxLikes) > s.AvgLikes*3 {
		advice = append(advice, "一部のコメントが非常に高いエンゲージメントを獲得しています。これらの成功パターンを分析し、コンテンツ戦略に反映させることで、全体的なエンゲージメント向上が期待できます。")
	}
	if len(advice) == 0 {
		advice = append(advice, "現在のエンゲージメント状況は良好です。継続的な分析と改善により、さらなる成長が期待できます。")
	}
	return advice
}

// BuildDashboard computes graph data, statistics, advice and clusters from
// the given comments. Clusters are nil when the analysis cannot run; the
// rest of the dashboard is still filled.
func BuildDashboard(comments []Comment, opts Options) *Dashboard {
	if len(comments) == 0 {
		return &Dashboard{}
	}
	s := computeStats(comments)
	a := analyzeEngagement(comments, s)
	return &Dashboard{
		Graph:    buildGraph(comments),
		Stats:    s,
		Analysis: a,
		Advice:   Advise(comments, s, a),
		Clusters: PerformClustering(comments, opts),
	}
}
