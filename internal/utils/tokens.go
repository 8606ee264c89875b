// Package utils holds small helpers shared by the pipeline and the surfaces:
// token estimation and atomic file writes.
package utils

import "strings"

// CountTokens estimates the number of tokens in text using the
// 1 token ~= 4 characters heuristic. Non-empty text is at least one token.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// Excerpt shortens text to roughly limit tokens for display, cutting at the
// last word boundary and appending an ellipsis. It is never applied to
// grounding text.
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	cut := string(runes[:charLimit])
	if i := strings.LastIndexByte(cut, ' '); i > charLimit/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// TokenBreakdown returns labeled sections mapped to their token estimates.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
