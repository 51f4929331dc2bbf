package rendering

import "strings"

// EscapeMarkdown backslash-escapes characters that Markdown would otherwise
// treat as formatting or raw HTML, and folds newlines into spaces so a value
// stays inside its paragraph or list item.
// Special characters: \ ` * _ [ ] < > # |
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) + len(text)/8)

	for _, r := range text {
		switch r {
		case '\\', '`', '*', '_', '[', ']', '<', '>', '#', '|':
			result.WriteByte('\\')
			result.WriteRune(r)
		case '\r':
			// dropped; '\n' handles the break
		case '\n':
			result.WriteByte(' ')
		default:
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
