package domain

import "unicode/utf8"

const (
	// MaxLineLength is the hard cap above which a line is never evaluated.
	MaxLineLength = 500
	// TruncateThreshold is the length above which an emitted line is shortened.
	TruncateThreshold = 300
	// TruncateKeep is how many characters of a long line are kept.
	TruncateKeep = 75
	// TruncateMarker follows a shortened line.
	TruncateMarker = ".."
)

// SkipLine reports whether a line is too long to evaluate. Lengths count
// characters, not bytes.
func SkipLine(line string) bool {
	return utf8.RuneCountInString(line) > MaxLineLength
}

// DisplayLine returns the text emitted for a matching line: verbatim up to the
// truncation threshold, otherwise its first TruncateKeep characters plus "..".
func DisplayLine(line string) string {
	if utf8.RuneCountInString(line) <= TruncateThreshold {
		return line
	}
	n := 0
	for i := range line {
		if n == TruncateKeep {
			return line[:i] + TruncateMarker
		}
		n++
	}
	return line + TruncateMarker
}
