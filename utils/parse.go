// sqadmin/utils/parse.go
package utils

import (
	"strings"

	"github.com/goccy/go-json"
)

// ParseStringList decodes the platform's loosely-typed list fields (post image
// URLs, tags). Older rows store a comma-separated string, newer rows a JSON
// array string. Try the structured form first, fall back to a delimiter
// split, and never surface a parse error: a malformed field renders as an
// empty list.
func ParseStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return compactStrings(parsed)
	}

	return compactStrings(strings.Split(raw, ","))
}

func compactStrings(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
