package grading

import (
	"strings"
	"unicode/utf8"
)

// DefaultSectionMinLength is the content length a section needs when its
// criterion does not set one.
const DefaultSectionMinLength = 20

// CountKeywords counts how many entries of keywords appear in text, ignoring
// case. Each entry counts once no matter how often it occurs; a keyword listed
// twice counts twice.
func CountKeywords(text string, keywords []string) int {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	low := strings.ToLower(text)
	n := 0
	for _, k := range keywords {
		if strings.Contains(low, strings.ToLower(k)) {
			n++
		}
	}
	return n
}

// MissingKeywords returns the keywords absent from text, in list order.
func MissingKeywords(text string, keywords []string) []string {
	low := strings.ToLower(text)
	var out []string
	for _, k := range keywords {
		if !strings.Contains(low, strings.ToLower(k)) {
			out = append(out, k)
		}
	}
	return out
}

// HasSection reports whether one of the indicators appears in text followed by
// at least minLength characters, counting from the start of the indicator to the
// end of the text. Indicators are tried in order and the first one that clears
// the bar wins.
func HasSection(text string, indicators []string, minLength int) bool {
	if text == "" {
		return false
	}
	// strings.ToLower maps rune for rune, so rune counts line up with text.
	low := strings.ToLower(text)
	for _, ind := range indicators {
		idx := strings.Index(low, strings.ToLower(ind))
		if idx < 0 {
			continue
		}
		if utf8.RuneCountInString(low[idx:]) >= minLength {
			return true
		}
	}
	return false
}

// textLength is the length of s in characters.
func textLength(s string) int { return utf8.RuneCountInString(s) }
