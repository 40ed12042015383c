package ytdash

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	mostCommonWords   = 20
	frequentKeywords  = 5
	tfidfKeywords     = 15
	topKeywords       = 3
	sampleComments    = 3
	minKeywordRepeats = 2
)

// ClusterSummary describes one non-empty cluster.
type ClusterSummary struct {
	ClusterID        int       `json:"cluster_id"`
	CommentCount     int       `json:"comment_count"`
	TopKeywords      []string  `json:"top_keywords"`
	AvgCommentLength float64   `json:"avg_comment_length"`
	SampleComments   []string  `json:"sample_comments"`
	Center           []float64 `json:"center"`
	Radius           float64   `json:"radius"`
}

type wordCount struct {
	word  string
	count int
	first int
}

// mostCommon returns words by descending count, ties in order of first appearance.
func mostCommon(words []string, n int) []wordCount {
	byWord := map[string]*wordCount{}
	var order []*wordCount
	for i, w := range words {
		if wc, ok := byWord[w]; ok {
			wc.count++
			continue
		}
		wc := &wordCount{word: w, count: 1, first: i}
		byWord[w] = wc
		order = append(order, wc)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return order[a].count > order[b].count
	})
	if len(order) > n {
		order = order[:n]
	}
	out := make([]wordCount, len(order))
	for i, wc := range order {
		out[i] = *wc
	}
	return out
}

// clusterKeywords merges frequent words and TF-IDF terms of one cluster into
// at most three keywords. Frequent words come first.
func clusterKeywords(members []string, vec *Vectorizer, words WordExtractor) []string {
	var all []string
	for _, m := range members {
		all = append(all, words.Extract(m)...)
	}

	var frequent []string
	for _, wc := range mostCommon(all, mostCommonWords) {
		if wc.count >= minKeywordRepeats {
			frequent = append(frequent, wc.word)
		}
	}
	if len(frequent) > frequentKeywords {
		frequent = frequent[:frequentKeywords]
	}

	candidates := append(frequent, vec.TopTerms(strings.Join(members, " "), tfidfKeywords)...)
	seen := map[string]bool{}
	keywords := []string{}
	for _, kw := range candidates {
		if seen[kw] || !keywordLength(kw) {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
		if len(keywords) == topKeywords {
			break
		}
	}
	return keywords
}

// SummarizeClusters builds a summary for every cluster id in [0, k) that has
// members. Empty clusters are left out, so ids may have gaps.
func SummarizeClusters(comments []string, labels []int, k int, vec *Vectorizer, words WordExtractor, geo clusterGeometry) []ClusterSummary {
	members := make([][]string, k)
	for i, label := range labels {
		members[label] = append(members[label], comments[i])
	}

	summaries := []ClusterSummary{}
	for id := 0; id < k; id++ {
		group := members[id]
		if len(group) == 0 {
			continue
		}
		length := 0
		for _, c := range group {
			length += utf8.RuneCountInString(c)
		}
		samples := group
		if len(samples) > sampleComments {
			samples = samples[:sampleComments]
		}
		summaries = append(summaries, ClusterSummary{
			ClusterID:        id,
			CommentCount:     len(group),
			TopKeywords:      clusterKeywords(group, vec, words),
			AvgCommentLength: math.Round(float64(length)/float64(len(group))*10) / 10,
			SampleComments:   append([]string(nil), samples...),
			Center:           geo.Centers[id],
			Radius:           geo.Radii[id],
		})
	}
	return summaries
}
