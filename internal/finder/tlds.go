package finder

import (
	"golang.org/x/net/publicsuffix"
)

// KnownTLDs is the suffix list offered by the search form. It also drives the
// stray-suffix guard in the normalizer.
var KnownTLDs = []string{
	"com", "xyz", "shop", "online", "org", "net", "io", "co", "info",
	"biz", "us", "uk", "ca", "au", "de", "fr", "es", "it", "nl",
	"tech", "app", "dev", "site", "website", "store", "cloud", "ai",
	"pro", "me", "tv", "cc", "ws", "name", "email", "blog", "news",
}

var knownTLDSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(KnownTLDs))
	for _, t := range KnownTLDs {
		m[t] = struct{}{}
	}
	return m
}()

// IsKnownTLD reports membership in KnownTLDs. tld must be lowercase.
func IsKnownTLD(tld string) bool {
	_, ok := knownTLDSet[tld]
	return ok
}

// IsSupportedTLD accepts the known list plus any single-label ICANN suffix.
// Multi-label suffixes (co.uk) are refused because candidates are validated
// as label.letters.
func IsSupportedTLD(tld string) bool {
	if tld == "" {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	if IsKnownTLD(tld) {
		return true
	}
	suffix, icann := publicsuffix.PublicSuffix("probe." + tld)
	return icann && suffix == tld
}
