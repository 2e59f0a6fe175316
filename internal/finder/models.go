package finder

import (
	"strings"
)

// SearchRequest is one keyword/TLD search. It is not modified after Validate.
type SearchRequest struct {
	Keyword string
	TLD     string
	Count   int
}

// Validate normalizes the TLD and checks the request bounds.
func (r *SearchRequest) Validate(maxCount int) error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.TLD = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(r.TLD), "."))
	if r.Keyword == "" || r.TLD == "" {
		return &Error{Kind: KindValidation, Stage: StageRequest, Message: "Missing required parameters: keyword and tld"}
	}
	if !IsSupportedTLD(r.TLD) {
		return &Error{Kind: KindValidation, Stage: StageRequest, Message: "Unsupported tld: " + r.TLD}
	}
	if maxCount <= 0 {
		maxCount = 1000
	}
	if r.Count < 1 || r.Count > maxCount {
		return &Error{Kind: KindValidation, Stage: StageRequest, Message: "count must be between 1 and " + itoa(maxCount)}
	}
	return nil
}

// Candidate is a generated name that passed normalization.
type Candidate struct {
	Label  string
	Suffix string
}

func (c Candidate) Domain() string { return c.Label + "." + c.Suffix }

// Domains returns the full domain strings in order.
func Domains(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Domain()
	}
	return out
}

// AvailabilityResult is the registrar's answer for one domain at check time.
type AvailabilityResult struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
	Premium   bool   `json:"premium,omitempty"`
}

// SearchResponse is the payload of GET /api/domains.
type SearchResponse struct {
	Keyword        string               `json:"keyword"`
	TLD            string               `json:"tld"`
	TotalGenerated int                  `json:"totalGenerated"`
	Available      int                  `json:"available"`
	Domains        []AvailabilityResult `json:"domains"`
}
