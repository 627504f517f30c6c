package alias

import "strings"

// DefaultPreviewWidth is the list preview length when none is configured.
const DefaultPreviewWidth = 60

// Preview collapses every whitespace run in prompt (newlines included) to a
// single space and truncates the result to width runes, ending in "..." when
// cut. A width of zero or less disables truncation.
func Preview(prompt string, width int) string {
	cleaned := strings.Join(strings.Fields(prompt), " ")
	if width <= 0 {
		return cleaned
	}

	runes := []rune(cleaned)
	if len(runes) <= width {
		return cleaned
	}
	cut := width - 3
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + "..."
}
