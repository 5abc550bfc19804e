package sanitizer

import "regexp"

var (
	csiPattern   = regexp.MustCompile(`\x1b\[[<>?=]?[0-9;]*[A-Za-z@^` + "`" + `~{|}!]`)
	oscPattern   = regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)
	otherPattern = regexp.MustCompile(`\x1b[()][AB012]`)
)

var escapePatterns = []*regexp.Regexp{csiPattern, oscPattern, otherPattern}

// RemoveEscapeSequences drops CSI, OSC and charset escape sequences.
func RemoveEscapeSequences(input string) string {
	for _, p := range escapePatterns {
		input = p.ReplaceAllString(input, "")
	}
	return input
}
