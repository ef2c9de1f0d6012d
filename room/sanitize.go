package room

import "regexp"

var reStripControl = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)

// SanitizeData strips control characters, including terminal escapes, from
// server-provided text before it reaches the transcript.
func SanitizeData(s string) string {
	return reStripControl.ReplaceAllString(s, "")
}
