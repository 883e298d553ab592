package library

// TruncateString shortens s to at most maxLen characters, marking the cut
// with "...". It counts runes so multi-byte titles are never split.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
