package recommend

import (
	"encoding/json"
	"math"
	"net/url"
	"strings"

	"github.com/cesargomez89/shelfwise/internal/textutil"
)

// Model replies are untyped; every accessor returns nil for a missing key or
// a value of the wrong type.

func stringField(m map[string]any, keys ...string) *string {
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok {
			continue
		}
		if s = textutil.Clean(s); s != "" {
			return &s
		}
	}
	return nil
}

func floatField(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		var f float64
		switch v := m[k].(type) {
		case json.Number:
			parsed, err := v.Float64()
			if err != nil {
				continue
			}
			f = parsed
		case float64:
			f = v
		default:
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return &f
	}
	return nil
}

func intField(m map[string]any, keys ...string) *int {
	f := floatField(m, keys...)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

// urlField only keeps absolute http(s) URLs.
func urlField(m map[string]any, keys ...string) *string {
	s := stringField(m, keys...)
	if s == nil {
		return nil
	}
	u, err := url.Parse(*s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	return s
}

func sameName(a, b string) bool {
	return textutil.FoldKey(a) == textutil.FoldKey(strings.TrimSpace(b))
}
