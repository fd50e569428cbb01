package record

import "strings"

// Search filters records in memory.  The query is split on whitespace and
// lower-cased; a record matches when every token is a substring of at least
// one of Title, Meal, Core, or Source.  Different tokens may match
// different fields.  An empty query returns records unchanged.
func Search(records []Record, query string) []Record {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return records
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if matchesAll(r, tokens) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r Record, tokens []string) bool {
	hay := make([]string, len(searchable))
	for i, f := range searchable {
		v, _ := r.Value(f)
		hay[i] = strings.ToLower(v)
	}
	for _, tok := range tokens {
		found := false
		for _, h := range hay {
			if strings.Contains(h, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
