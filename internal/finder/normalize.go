package finder

import (
	"regexp"
	"strings"
)

var (
	tokenSplitRe     = regexp.MustCompile(`[\n,;]+`)
	leadingMarkersRe = regexp.MustCompile(`^[\d\s\-•*.()\[\]]+`)
	trailingPunctRe  = regexp.MustCompile(`[.,;]+$`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
	alnumLabelRe     = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	domainShapeRe    = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]*\.[a-z]+$`)
)

const (
	minLabelLen  = 3
	maxLabelLen  = 50
	minDomainLen = 4  // exclusive
	maxDomainLen = 60 // exclusive
)

// Rejection records a discarded token and the first rule that refused it.
type Rejection struct {
	Token  string
	Reason string
}

type rule struct {
	reason string
	reject func(string) bool
}

// tokenRules run on the trimmed raw token.
var tokenRules = []rule{
	{"echoes the instructions", func(tok string) bool {
		lower := strings.ToLower(tok)
		return strings.Contains(lower, "example") || strings.Contains(lower, "format")
	}},
}

// labelRules run on the label after marker, suffix and whitespace cleanup.
var labelRules = []rule{
	{"not ASCII letters and digits", func(l string) bool { return !alnumLabelRe.MatchString(l) }},
	{"label shorter than 3", func(l string) bool { return len(l) < minLabelLen }},
	{"label longer than 50", func(l string) bool { return len(l) > maxLabelLen }},
}

// domainRules run on the assembled lowercase domain.
var domainRules = []rule{
	{"invalid domain shape", func(d string) bool { return !domainShapeRe.MatchString(d) }},
	{"domain length out of range", func(d string) bool { return len(d) <= minDomainLen || len(d) >= maxDomainLen }},
}

func firstRejection(rules []rule, s string) (string, bool) {
	for _, r := range rules {
		if r.reject(s) {
			return r.reason, true
		}
	}
	return "", false
}

// Normalize turns free model text into at most max candidates, first seen first.
func Normalize(raw, suffix string, max int) []Candidate {
	candidates, _ := NormalizeWithReport(raw, suffix, max)
	return candidates
}

// NormalizeWithReport is Normalize plus the list of discarded tokens.
func NormalizeWithReport(raw, suffix string, max int) ([]Candidate, []Rejection) {
	suffix = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(suffix), "."))
	if max <= 0 || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var (
		candidates []Candidate
		rejected   []Rejection
		seen       = make(map[string]struct{})
	)
	for _, tok := range tokenSplitRe.Split(raw, -1) {
		if len(candidates) == max {
			break
		}
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if reason, bad := firstRejection(tokenRules, tok); bad {
			rejected = append(rejected, Rejection{Token: tok, Reason: reason})
			continue
		}

		label := extractLabel(tok)
		if reason, bad := firstRejection(labelRules, label); bad {
			rejected = append(rejected, Rejection{Token: tok, Reason: reason})
			continue
		}

		label = strings.ToLower(label)
		domain := label + "." + suffix
		if reason, bad := firstRejection(domainRules, domain); bad {
			rejected = append(rejected, Rejection{Token: tok, Reason: reason})
			continue
		}
		if _, dup := seen[domain]; dup {
			rejected = append(rejected, Rejection{Token: tok, Reason: "duplicate"})
			continue
		}
		seen[domain] = struct{}{}
		candidates = append(candidates, Candidate{Label: label, Suffix: suffix})
	}
	return candidates, rejected
}

// extractLabel strips list markers, trailing punctuation, anything from the
// first period on, a stray space-separated TLD word and inner whitespace.
func extractLabel(tok string) string {
	s := strings.TrimSpace(leadingMarkersRe.ReplaceAllString(tok, ""))
	s = strings.TrimSpace(trailingPunctRe.ReplaceAllString(s, ""))
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if fields := strings.Fields(s); len(fields) > 1 && IsKnownTLD(strings.ToLower(fields[len(fields)-1])) {
		s = strings.Join(fields[:len(fields)-1], " ")
	}
	return whitespaceRe.ReplaceAllString(s, "")
}
