package tools

import (
	"fmt"
	"unicode/utf8"
)

const truncateMarkerFmt = "\n[truncated: %d bytes omitted]"

// truncate caps content so that content plus an explicit omission marker
// fits within maxBytes. The cut lands on a rune boundary so multibyte
// characters are never split. Content within the ceiling passes unchanged.
func truncate(content string, maxBytes int) string {
	if maxBytes <= 0 || len(content) <= maxBytes {
		return content
	}

	// Size the marker for the largest possible omitted count so the
	// final result never exceeds the ceiling.
	cut := maxBytes - len(fmt.Sprintf(truncateMarkerFmt, len(content)))
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + fmt.Sprintf(truncateMarkerFmt, len(content)-cut)
}
