package llm

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// ListKey is the object property that may hold the suggestion array.
const ListKey = "recommendations"

var (
	thinkBlock = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)
	thinkOpen  = regexp.MustCompile(`(?is)</?think(?:ing)?>`)
	codeFence  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
)

// ExtractItems finds the suggestion list in a model reply. It accepts a bare
// JSON array or an object with a "recommendations" array, optionally wrapped
// in think tags, code fences or prose. The first list holding objects wins;
// an empty list only counts when nothing better follows. ok is false when
// nothing usable was found. Non-object array entries are dropped.
func ExtractItems(content string) (items []map[string]any, ok bool) {
	cleaned := stripWrappers(content)

	for start := 0; start < len(cleaned); start++ {
		c := cleaned[start]
		if c != '[' && c != '{' {
			continue
		}
		list, found := decodeList(cleaned[start:])
		if !found {
			continue
		}
		if len(list) > 0 {
			return list, true
		}
		if !ok {
			items, ok = list, true
		}
	}
	return items, ok
}

func stripWrappers(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	s = thinkOpen.ReplaceAllString(s, "")
	s = codeFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// decodeList decodes the first JSON value in s and ignores anything after it.
func decodeList(s string) ([]map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}

	var raw []any
	switch t := v.(type) {
	case []any:
		raw = t
	case map[string]any:
		list, isList := t[ListKey].([]any)
		if !isList {
			return nil, false
		}
		raw = list
	default:
		return nil, false
	}

	items := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if obj, isObj := entry.(map[string]any); isObj {
			items = append(items, obj)
		}
	}
	// [1] or ["a", "b"] is not a suggestion list
	if len(items) == 0 && len(raw) > 0 {
		return nil, false
	}
	return items, true
}
