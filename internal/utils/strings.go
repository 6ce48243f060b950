package utils

import "strings"

// TrimOrEmpty normalizes user-supplied text fields.
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// FirstNonEmpty returns the first value with visible content.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
