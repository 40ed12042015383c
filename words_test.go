package ytdash

import (
	"reflect"
	"slices"
	"testing"
)

func TestRegexExtractor(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"hello world a", []string{"hello", "world"}},
		{"です ok", []string{"ok"}},
		{"abcdefghijkl short", []string{"short"}},
		{"see https://example.com/x @user thanks", []string{"see", "thanks"}},
	}
	for _, tc := range cases {
		if got := (regexExtractor{}).Extract(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Extract(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSegmentingExtractor(t *testing.T) {
	words := newWordExtractor(testLogger)
	if _, ok := words.(*segmentingExtractor); !ok {
		t.Fatalf("newWordExtractor returned %T; want *segmentingExtractor", words)
	}

	got := words.Extract("美味しいラーメンを食べました")
	if !slices.Contains(got, "ラーメン") {
		t.Errorf("Extract = %q; want it to contain ラーメン", got)
	}
	for _, w := range got {
		if w == "を" || w == "まし" || w == "た" {
			t.Errorf("Extract = %q; function word %q not removed", got, w)
		}
	}

	if got := words.Extract("の"); len(got) != 0 {
		t.Errorf("Extract(の) = %q; want nothing", got)
	}
	if got := words.Extract(""); got != nil {
		t.Errorf("Extract(\"\") = %q; want nil", got)
	}
}

func TestKeywordLength(t *testing.T) {
	cases := map[string]bool{
		"a":           false,
		"ab":          true,
		"日本":          true,
		"abcdefghij":  true,
		"abcdefghijk": false,
	}
	for in, want := range cases {
		if got := keywordLength(in); got != want {
			t.Errorf("keywordLength(%q) = %v; want %v", in, got, want)
		}
	}
}
