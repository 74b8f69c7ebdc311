package cache

// Query maps field names to match conditions. A plain value matches by
// equality; a GTE value matches anything greater than or equal to it.
// Field names may be dot-paths into nested documents ("sprint.state").
type Query map[string]any

// GTE is a lower-bound range condition, used for TTL and date-range filters.
type GTE struct {
	Value any
}

// clone copies the query so the store can append its own clauses without
// mutating the caller's filter.
func (q Query) clone() Query {
	out := make(Query, len(q)+2)
	for k, v := range q {
		out[k] = v
	}
	return out
}
