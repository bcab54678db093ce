package identity

import (
	"fmt"
	"strings"
)

// SanitizeGUID lowercases guid, strips hyphens, and drops any character
// outside [a-z0-9_], returning an error if nothing is left (spec.md §4.3).
func SanitizeGUID(guid string) (string, error) {
	lowered := strings.ToLower(guid)
	var b strings.Builder
	for _, r := range lowered {
		if r == '-' {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "", fmt.Errorf("identity: sanitized guid is empty")
	}
	return out, nil
}
