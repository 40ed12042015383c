package ytdash

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

const (
	minWordLen = 2
	maxWordLen = 10
)

// WordExtractor pulls candidate keywords out of a cleaned comment.
type WordExtractor interface {
	Extract(text string) []string
}

var (
	// Function words and common auxiliaries never worth reporting.
	segmenterStopWords = wordSet(
		"の", "に", "は", "を", "が", "で", "と", "も", "か", "な", "だ",
		"です", "ます", "ました", "て", "た", "する", "した", "ある", "いる",
		"なる", "れる", "られる", "でした",
	)
	fallbackStopWords = wordSet(
		"の", "に", "は", "を", "が", "で", "と", "も", "か", "な", "だ",
		"です", "ます", "ました", "て", "た", "する", "した", "ある", "いる",
		"なる", "れる", "られる",
	)
	stopPOS = wordSet("助詞", "助動詞", "記号")

	looseURLPattern = regexp.MustCompile(`https?://\S+`)
	wordRunPattern  = regexp.MustCompile(`[\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}\p{L}\p{N}_]+`)
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func hasWord(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}

func keywordLength(w string) bool {
	n := utf8.RuneCountInString(w)
	return n >= minWordLen && n <= maxWordLen
}

func stripLinks(text string) string {
	text = looseURLPattern.ReplaceAllString(text, "")
	return mentionPattern.ReplaceAllString(text, "")
}

// regexExtractor splits text into runs of word characters and kana/kanji.
type regexExtractor struct{}

func (regexExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	var words []string
	for _, w := range wordRunPattern.FindAllString(stripLinks(text), -1) {
		if keywordLength(w) && !hasWord(fallbackStopWords, w) {
			words = append(words, w)
		}
	}
	return words
}

// segmentingExtractor uses morphological analysis and falls back to the
// regex extractor when the analysis yields nothing.
type segmentingExtractor struct {
	tok      *tokenizer.Tokenizer
	fallback regexExtractor
}

func (e *segmentingExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	stripped := stripLinks(text)
	var words []string
	for _, token := range e.tok.Tokenize(stripped) {
		surface := token.Surface
		pos := ""
		if features := token.POS(); len(features) > 0 {
			pos = features[0]
		}
		if hasWord(segmenterStopWords, surface) || hasWord(stopPOS, pos) {
			continue
		}
		if keywordLength(surface) {
			words = append(words, surface)
		}
	}
	if len(words) == 0 {
		return e.fallback.Extract(stripped)
	}
	return words
}

var (
	segmenterOnce sync.Once
	segmenter     *tokenizer.Tokenizer
	segmenterErr  error
)

// loadSegmenter builds the IPA dictionary tokenizer once per process.
func loadSegmenter() (*tokenizer.Tokenizer, error) {
	segmenterOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				segmenterErr = fmt.Errorf("failed to load dictionary: %v", r)
			}
		}()
		segmenter, segmenterErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	return segmenter, segmenterErr
}

// newWordExtractor returns the segmenting extractor, or the regex extractor
// when the dictionary cannot be loaded.
func newWordExtractor(log *slog.Logger) WordExtractor {
	tok, err := loadSegmenter()
	if err != nil {
		log.Warn("morphological analysis unavailable, using regex extraction", "error", err)
		return regexExtractor{}
	}
	return &segmentingExtractor{tok: tok}
}
