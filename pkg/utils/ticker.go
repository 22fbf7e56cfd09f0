// Package utils provides small helpers shared across fairvalue packages.
package utils

import "strings"

// NormalizeTicker trims whitespace and uppercases a user-supplied ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ParseTickers normalizes a list of raw ticker values, dropping anything
// that is not a string or is blank after trimming. Order is preserved.
func ParseTickers(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		if ss, ok := raw.([]string); ok {
			items = make([]any, len(ss))
			for i, s := range ss {
				items[i] = s
			}
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := ToString(item)
		if !ok {
			continue
		}
		if t := NormalizeTicker(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
