package finder

import "strings"

// Assemble packages a finished search. Repeated result domains are collapsed,
// first occurrence wins.
func Assemble(req SearchRequest, candidates []Candidate, results []AvailabilityResult) SearchResponse {
	domains := make([]AvailabilityResult, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	available := 0
	for _, r := range results {
		key := strings.ToLower(r.Domain)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if r.Available {
			available++
		}
		domains = append(domains, r)
	}
	return SearchResponse{
		Keyword:        req.Keyword,
		TLD:            req.TLD,
		TotalGenerated: len(candidates),
		Available:      available,
		Domains:        domains,
	}
}
