package domain

import (
	"cmp"
	"slices"
)

// BuildHierarchy returns copies of records in depth-first tree order with
// Depth, HasChildren and Rollup populated. Records whose parent is missing are
// treated as roots; a parent cycle is broken at the first revisited record.
func BuildHierarchy(records []Record) []Record {
	byID := make(map[string]Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec.Clone()
	}
	children := map[string][]string{}
	roots := make([]string, 0, len(records))
	for _, rec := range records {
		if _, ok := byID[rec.ParentID]; rec.ParentID != "" && ok {
			children[rec.ParentID] = append(children[rec.ParentID], rec.ID)
			continue
		}
		roots = append(roots, rec.ID)
	}
	siblingOrder := func(ids []string) {
		slices.SortStableFunc(ids, func(a, b string) int {
			ra, rb := byID[a], byID[b]
			if c := cmp.Compare(ra.Position, rb.Position); c != 0 {
				return c
			}
			if c := cmp.Compare(ra.Name, rb.Name); c != 0 {
				return c
			}
			return cmp.Compare(ra.ID, rb.ID)
		})
	}
	siblingOrder(roots)
	for parentID := range children {
		siblingOrder(children[parentID])
	}

	out := make([]Record, 0, len(records))
	visited := make(map[string]bool, len(records))
	var walk func(id string, depth int) map[string]PeriodResult
	walk = func(id string, depth int) map[string]PeriodResult {
		visited[id] = true
		rec := byID[id]
		rec.Depth = depth
		idx := len(out)
		out = append(out, rec)

		kids := make([]string, 0, len(children[id]))
		for _, childID := range children[id] {
			if !visited[childID] {
				kids = append(kids, childID)
			}
		}
		if len(kids) == 0 {
			out[idx].HasChildren = false
			out[idx].Rollup = nil
			return cloneResults(rec.Results)
		}
		rollup := map[string]PeriodResult{}
		for _, childID := range kids {
			for period, res := range walk(childID, depth+1) {
				rollup[period] = mergeResults(rollup[period], res)
			}
		}
		out[idx].HasChildren = true
		out[idx].Rollup = rollup
		return cloneResults(rollup)
	}
	for _, id := range roots {
		if !visited[id] {
			walk(id, 0)
		}
	}
	// Remaining records only reachable through a cycle.
	for _, rec := range records {
		if !visited[rec.ID] {
			walk(rec.ID, 0)
		}
	}
	return out
}

// mergeResults folds one child bucket into an aggregate bucket.
func mergeResults(acc, res PeriodResult) PeriodResult {
	return PeriodResult{
		Planned:    acc.Planned || res.Planned,
		Actual:     acc.Actual || res.Actual,
		PlanCost:   acc.PlanCost + res.PlanCost,
		ActualCost: acc.ActualCost + res.ActualCost,
	}
}

// PeriodKeys returns every period key used by records, sorted ascending.
func PeriodKeys(records []Record) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for key := range rec.Results {
			seen[key] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}

// SpecKeys returns distinct specification keys ordered by their lowest order
// value and then by first appearance.
func SpecKeys(records []Record) []string {
	type keyRank struct {
		key   string
		order int
		first int
	}
	ranks := map[string]*keyRank{}
	seq := 0
	for _, rec := range records {
		for _, spec := range rec.Specs {
			if r, ok := ranks[spec.Key]; ok {
				r.order = min(r.order, spec.Order)
				continue
			}
			ranks[spec.Key] = &keyRank{key: spec.Key, order: spec.Order, first: seq}
			seq++
		}
	}
	list := make([]*keyRank, 0, len(ranks))
	for _, r := range ranks {
		list = append(list, r)
	}
	slices.SortFunc(list, func(a, b *keyRank) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.key)
	}
	return out
}
