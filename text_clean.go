package ytdash

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	spacePattern   = regexp.MustCompile(`[\s\p{Z}]+`)
	// Everything except word characters, whitespace and basic punctuation.
	symbolPattern = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\p{Z}.,!?;:()\-]`)
)

// CleanText strips URLs, @mentions and decorative symbols from a comment and
// collapses whitespace. It never fails; an empty input gives an empty result.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	text = symbolPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// CleanAll cleans every comment and drops the ones left empty.
func CleanAll(texts []string) []string {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if c := CleanText(t); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return cleaned
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
