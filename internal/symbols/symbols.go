package symbols

import "sort"

// US listed tickers: 1 to 5 characters drawn from uppercase letters, digits
// and the share-class dot (BRK.B), with at least one letter and no leading or
// trailing dot.
const maxLen = 5

// IsValid reports whether s is a well-formed ticker symbol.
func IsValid(s string) bool {
	if len(s) == 0 || len(s) > maxLen {
		return false
	}
	if s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}
	hasLetter := false
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
		case c == '.':
		default:
			return false
		}
	}
	return hasLetter
}

// Normalize deduplicates the given symbols and returns them sorted ascending.
func Normalize(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
