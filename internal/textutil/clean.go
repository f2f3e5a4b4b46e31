package textutil

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Clean decodes HTML entities, strips control characters (line breaks and
// tabs survive the strip) and collapses whitespace runs to a single space.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate cuts s to at most max characters.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// TruncatePtr applies Truncate to an optional field, mapping blank values to nil.
func TruncatePtr(s *string, max int) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	v = Truncate(v, max)
	return &v
}

// FoldKey returns the comparison key used for case-insensitive dedup.
func FoldKey(s string) string {
	// cases.Caser is stateful; build one per call.
	return cases.Fold().String(strings.TrimSpace(s))
}

// Dedupe keeps the first element for every folded key, preserving order.
// Elements whose key is blank are dropped.
func Dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := FoldKey(key(it))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
