package arxiv

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines = regexp.MustCompile(`\n\n\n+`)
	// "atten-\ntion" -> "attention"
	hyphenBreak = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
)

// CleanText normalizes extracted paper text: line endings, runs of spaces,
// hyphenated line breaks and excessive blank lines.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = hyphenBreak.ReplaceAllString(content, "$1$2")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}

	result := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// Truncate shortens text to at most maxChars runes. maxChars <= 0 disables it.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}
