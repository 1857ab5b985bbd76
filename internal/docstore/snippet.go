package docstore

import (
	"strings"
)

const (
	snippetLength = 200
	contextWindow = 50
)

// Snippet extracts a short, readable excerpt of content centered on the
// earliest occurrence of any of queryTerms, trimmed to a sentence or word
// boundary and marked with ellipses where the excerpt was truncated. If no
// query term is found, it falls back to a plain prefix truncation.
func Snippet(content string, queryTerms []string) string {
	if content == "" || len(queryTerms) == 0 {
		return truncate(content, snippetLength)
	}

	bestPos := -1
	for _, term := range queryTerms {
		pos := findWholeWord(content, term, 0)
		if pos >= 0 && (bestPos < 0 || pos < bestPos) {
			bestPos = pos
		}
	}
	if bestPos < 0 {
		return truncate(content, snippetLength)
	}

	start := 0
	if bestPos > contextWindow {
		start = bestPos - contextWindow
	}
	end := start + snippetLength
	if end > len(content) {
		end = len(content)
	}

	if start > 0 {
		if sentenceStart := lastIndexAny(content[:start], ".!?\n"); sentenceStart >= 0 && start-sentenceStart < 100 {
			start = sentenceStart + 1
			for start < len(content) && isSpace(content[start]) {
				start++
			}
		} else if wordStart := lastIndexAny(content[:start], " \t\n"); wordStart > 0 {
			start = wordStart + 1
		}
	}

	if end < len(content) {
		if sentenceEnd := indexAnyFrom(content, ".!?\n", end); sentenceEnd >= 0 && sentenceEnd-end < 100 {
			end = sentenceEnd + 1
		} else if wordEnd := indexAnyFrom(content, " \t\n", end); wordEnd >= 0 {
			end = wordEnd
		}
	}

	snippet := strings.Trim(content[start:end], " \t\n\r")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cutPos := maxLen
	if wordEnd := lastIndexAny(text[:cutPos], " \t\n"); wordEnd >= 0 && float64(wordEnd) > float64(maxLen)*0.8 {
		cutPos = wordEnd
	}
	return text[:cutPos] + "..."
}

// findWholeWord returns the index of the first case-insensitive,
// word-boundary-respecting match of word in text at or after startPos, or
// -1 if none exists.
func findWholeWord(text, word string, startPos int) int {
	lowerText := strings.ToLower(text)
	lowerWord := strings.ToLower(word)
	pos := startPos
	for pos < len(text) {
		idx := strings.Index(lowerText[pos:], lowerWord)
		if idx < 0 {
			return -1
		}
		idx += pos
		validStart := idx == 0 || !isAlnum(text[idx-1])
		end := idx + len(word)
		validEnd := end >= len(text) || !isAlnum(text[end])
		if validStart && validEnd {
			return idx
		}
		pos = idx + 1
	}
	return -1
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func lastIndexAny(s, chars string) int {
	return strings.LastIndexAny(s, chars)
}

func indexAnyFrom(s, chars string, from int) int {
	if from >= len(s) {
		return -1
	}
	idx := strings.IndexAny(s[from:], chars)
	if idx < 0 {
		return -1
	}
	return from + idx
}
