// Package cleaner turns raw backend text into a parseable JSON payload and
// strips decoration that models add to string values.
package cleaner

import (
	"regexp"
	"strings"
)

const bom = "\ufeff"

// reasoningBlock matches <think>...</think> and <thinking>...</thinking> blocks.
var reasoningBlock = regexp.MustCompile(`(?is)<(think|thinking)>.*?</(think|thinking)>`)

var reasoningOpen = regexp.MustCompile(`(?i)<(think|thinking)>`)

// Clean extracts the JSON object from raw model output.
// The result is intended to be valid JSON but is not parsed or validated here.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	text = stripCodeFence(text)
	text = reasoningBlock.ReplaceAllString(text, "")
	text = cutUnterminated(text)
	text = strings.TrimPrefix(strings.TrimSpace(text), bom)
	return extractObject(strings.TrimSpace(text))
}

// cutUnterminated drops an unclosed reasoning block that runs to the end of
// the text. Tags inside the first balanced JSON object may sit in a string
// value and are kept.
func cutUnterminated(text string) string {
	first := strings.Index(text, "{")
	end := -1
	if first >= 0 {
		end = objectEnd(text, first)
	}
	for _, loc := range reasoningOpen.FindAllStringIndex(text, -1) {
		if first < 0 || loc[0] < first || (end >= 0 && loc[0] > end) {
			return text[:loc[0]]
		}
	}
	return text
}

// objectEnd returns the index of the '}' closing the object that opens at
// start, or -1 when it is never closed.
func objectEnd(text string, start int) int {
	depth, inString, escaped := 0, false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripCodeFence removes a leading ```lang line and a trailing ``` line.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return strings.Trim(content, "`")
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if last := strings.TrimSpace(lines[len(lines)-1]); strings.HasPrefix(last, "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractObject slices from the first '{' to the last '}'.
// Text without a well-ordered brace pair is returned unchanged.
func extractObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}
