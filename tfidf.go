package ytdash

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/james-bowman/sparse"
)

var (
	// ErrInsufficientData is returned when fewer than two usable comments remain.
	ErrInsufficientData = errors.New("not enough data: at least 2 non-empty comments are required")
	// ErrEmptyVocabulary is returned when document-frequency pruning leaves no terms.
	ErrEmptyVocabulary = errors.New("no terms remain after pruning")
)

const (
	maxVocabulary = 1000
	maxDocRatio   = 0.95
)

// Terms are runs of two or more word characters, matched on lower-cased text.
var termPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Vectorizer is a TF-IDF model over unigrams and bigrams fitted on one corpus.
type Vectorizer struct {
	terms []string       // sorted vocabulary
	index map[string]int // term -> column
	idf   []float64
}

// analyze returns the unigrams followed by the bigrams of doc.
func analyze(doc string) []string {
	tokens := termPattern.FindAllString(strings.ToLower(doc), -1)
	grams := make([]string, 0, 2*len(tokens))
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}

// FitTransform fits the vocabulary and IDF weights on docs and returns the
// L2-normalized TF-IDF matrix with one row per document.
func FitTransform(docs []string) (*Vectorizer, *sparse.CSR, error) {
	nonEmpty := 0
	for _, d := range docs {
		if strings.TrimSpace(d) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return nil, nil, ErrInsufficientData
	}

	counts := make([]map[string]int, len(docs))
	df := map[string]int{}
	tf := map[string]int{}
	for i, d := range docs {
		counts[i] = map[string]int{}
		for _, g := range analyze(d) {
			counts[i][g]++
			tf[g]++
		}
		for g := range counts[i] {
			df[g]++
		}
	}

	maxDocs := maxDocRatio * float64(len(docs))
	var kept []string
	for term, n := range df {
		if float64(n) <= maxDocs {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	// Most frequent terms win when the vocabulary is capped.
	if len(kept) > maxVocabulary {
		sort.Slice(kept, func(a, b int) bool {
			if tf[kept[a]] != tf[kept[b]] {
				return tf[kept[a]] > tf[kept[b]]
			}
			return kept[a] < kept[b]
		})
		kept = kept[:maxVocabulary]
	}
	sort.Strings(kept)

	v := &Vectorizer{
		terms: kept,
		index: make(map[string]int, len(kept)),
		idf:   make([]float64, len(kept)),
	}
	n := float64(len(docs))
	for j, term := range kept {
		v.index[term] = j
		v.idf[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	ia := make([]int, 1, len(docs)+1)
	var ja []int
	var data []float64
	for _, c := range counts {
		cols, vals := v.weigh(c)
		ja = append(ja, cols...)
		data = append(data, vals...)
		ia = append(ia, len(ja))
	}
	return v, sparse.NewCSR(len(docs), len(kept), ia, ja, data), nil
}

// weigh turns term counts into sorted column indices and normalized weights.
func (v *Vectorizer) weigh(counts map[string]int) ([]int, []float64) {
	cols := make([]int, 0, len(counts))
	for term := range counts {
		if j, ok := v.index[term]; ok {
			cols = append(cols, j)
		}
	}
	sort.Ints(cols)

	vals := make([]float64, len(cols))
	norm := 0.0
	for k, j := range cols {
		vals[k] = float64(counts[v.terms[j]]) * v.idf[j]
		norm += vals[k] * vals[k]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range vals {
			vals[k] /= norm
		}
	}
	return cols, vals
}

// Transform weighs text against the fitted vocabulary. Unknown terms are
// ignored; the result has one entry per vocabulary term.
func (v *Vectorizer) Transform(text string) []float64 {
	counts := map[string]int{}
	for _, g := range analyze(text) {
		counts[g]++
	}
	row := make([]float64, len(v.terms))
	cols, vals := v.weigh(counts)
	for k, j := range cols {
		row[j] = vals[k]
	}
	return row
}

// Terms returns the fitted vocabulary in column order.
func (v *Vectorizer) Terms() []string {
	return v.terms
}

// TopTerms returns up to n terms of text with a nonzero weight, heaviest first.
func (v *Vectorizer) TopTerms(text string, n int) []string {
	row := v.Transform(text)
	cols := make([]int, 0, len(row))
	for j, w := range row {
		if w > 0 {
			cols = append(cols, j)
		}
	}
	sort.SliceStable(cols, func(a, b int) bool {
		return row[cols[a]] > row[cols[b]]
	})
	if len(cols) > n {
		cols = cols[:n]
	}
	terms := make([]string, len(cols))
	for k, j := range cols {
		terms[k] = v.terms[j]
	}
	return terms
}
