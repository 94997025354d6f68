package hybrid

// Pagination is the page descriptor returned alongside a result set
// (spec §4.B step 8).
type Pagination struct {
	Offset   int
	Limit    int
	Total    int
	HasMore  bool
}

// paginate slices results into [offset, offset+limit) and reports the
// pagination envelope. total is the upstream total_matching count, which
// may exceed len(results) because results only ever holds one overfetched
// page's worth of rows.
func paginate(results []Result, offset, limit, total int) ([]Result, Pagination) {
	p := Pagination{Offset: offset, Limit: limit, Total: total}

	if offset >= len(results) {
		p.HasMore = offset+limit < total
		return []Result{}, p
	}

	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	p.HasMore = offset+limit < total
	return results[offset:end], p
}
