package nutrition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeList coerces a stored list field into an ordered sequence of
// strings. The stored text may be a JSON array, a JSON string, or plain
// comma-separated text written by older clients. It never fails: input that
// is not JSON degrades to comma splitting, and empty input yields an empty
// (non-nil) slice.
//
// A JSON array of strings is returned unchanged. Comma-split segments are
// trimmed and empty segments are dropped.
func NormalizeList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		if list == nil {
			return []string{}
		}
		return list
	}

	// Arrays holding non-string scalars keep their order, rendered as text.
	var mixed []any
	if err := json.Unmarshal([]byte(s), &mixed); err == nil {
		out := make([]string, 0, len(mixed))
		for _, v := range mixed {
			if v == nil {
				continue
			}
			if str, ok := v.(string); ok {
				out = append(out, str)
				continue
			}
			out = append(out, fmt.Sprint(v))
		}
		return out
	}

	var single string
	if err := json.Unmarshal([]byte(s), &single); err == nil {
		return SplitList(single)
	}

	return SplitList(s)
}

// SplitList splits comma-delimited free text into trimmed, non-empty items.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NormalizeNullable is NormalizeList for a nullable column.
func NormalizeNullable(raw *string) []string {
	if raw == nil {
		return []string{}
	}
	return NormalizeList(*raw)
}

// StringList is a list field as exposed over the API. It always encodes as a
// JSON array, never null, and accepts either an array or a single delimited
// string on input.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = StringList{}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		out := make(StringList, 0, len(items))
		for _, it := range items {
			if it = strings.TrimSpace(it); it != "" {
				out = append(out, it)
			}
		}
		*l = out
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("expected a list of strings or a comma-separated string")
	}
	*l = StringList(SplitList(single))
	return nil
}

// encode renders the list in the canonical storage form, a JSON array.
func (l StringList) encode() string {
	if l == nil {
		l = StringList{}
	}
	b, _ := json.Marshal([]string(l))
	return string(b)
}
