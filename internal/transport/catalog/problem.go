package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// problemDetails is the ASP.NET error body, including validation errors.
type problemDetails struct {
	Title  string                     `json:"title"`
	Detail string                     `json:"detail"`
	Errors map[string]json.RawMessage `json:"errors"`
}

// errorMessage extracts a readable message from an error body: validation
// lines ("Field: msg") sorted by field, else detail, else title, else the raw
// body, else fallback.
func errorMessage(raw []byte, fallback string) string {
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return fallback
	}

	var pd problemDetails
	if err := json.Unmarshal(raw, &pd); err != nil {
		return body
	}

	if len(pd.Errors) > 0 {
		fields := make([]string, 0, len(pd.Errors))
		for f := range pd.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		var lines []string
		for _, f := range fields {
			for _, m := range fieldMessages(pd.Errors[f]) {
				lines = append(lines, f+": "+m)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n")
		}
	}
	if pd.Detail != "" {
		return pd.Detail
	}
	if pd.Title != "" {
		return pd.Title
	}
	return body
}

func fieldMessages(v json.RawMessage) []string {
	var list []any
	if json.Unmarshal(v, &list) == nil {
		out := make([]string, 0, len(list))
		for _, m := range list {
			out = append(out, fmt.Sprint(m))
		}
		return out
	}
	var one any
	if json.Unmarshal(v, &one) != nil || one == nil {
		return nil
	}
	return []string{fmt.Sprint(one)}
}
