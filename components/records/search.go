package records

import (
	"sort"
	"strings"

	"github.com/goliatone/go-dynui/pkg/record"
)

// Search returns every record matching query case-insensitively. Records
// whose matched value starts with the query sort first, then by ID. An empty
// query matches the whole collection in its stored order.
func Search(records []record.Record, query string, opts Options) []record.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]record.Record{}, records...)
	}

	type hit struct {
		rec    record.Record
		prefix bool
	}
	var hits []hit
	for _, rec := range records {
		if matched, prefix := matchRecord(rec, q, opts.SearchFields); matched {
			hits = append(hits, hit{rec: rec, prefix: prefix})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].prefix != hits[j].prefix {
			return hits[i].prefix
		}
		return hits[i].rec.ID < hits[j].rec.ID
	})

	out := make([]record.Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return out
}

func matchRecord(rec record.Record, q string, fields []string) (matched, prefix bool) {
	check := func(value string) {
		lower := strings.ToLower(value)
		if strings.Contains(lower, q) {
			matched = true
			prefix = prefix || strings.HasPrefix(lower, q)
		}
	}

	if len(fields) > 0 {
		for _, field := range fields {
			if value, ok := rec.String(field); ok {
				check(value)
			}
		}
		return matched, prefix
	}

	check(rec.ID)
	for _, value := range rec.Attributes {
		if s, ok := value.(string); ok {
			check(s)
		}
	}
	return matched, prefix
}
