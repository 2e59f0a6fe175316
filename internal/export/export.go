// Package export renders search results for download and for the registrar's
// bulk search page.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
)

// BulkSearchBaseURL is Namecheap's beast-mode search page.
const BulkSearchBaseURL = "https://www.namecheap.com/domains/registration/results/"

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DisplayState is the set of domains the user dismissed from the current
// result list. It is never sent upstream.
type DisplayState struct {
	dismissed map[string]struct{}
}

func NewDisplayState(dismissed ...string) *DisplayState {
	s := &DisplayState{dismissed: make(map[string]struct{}, len(dismissed))}
	for _, d := range dismissed {
		s.Dismiss(d)
	}
	return s
}

func (s *DisplayState) Dismiss(domain string) {
	if s.dismissed == nil {
		s.dismissed = make(map[string]struct{})
	}
	s.dismissed[strings.ToLower(strings.TrimSpace(domain))] = struct{}{}
}

func (s *DisplayState) IsDismissed(domain string) bool {
	_, ok := s.dismissed[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// Reset clears dismissals; called when a new search starts.
func (s *DisplayState) Reset() { s.dismissed = make(map[string]struct{}) }

// Visible returns results that were not dismissed, in order.
func (s *DisplayState) Visible(results []finder.AvailabilityResult) []finder.AvailabilityResult {
	out := make([]finder.AvailabilityResult, 0, len(results))
	for _, r := range results {
		if !s.IsDismissed(r.Domain) {
			out = append(out, r)
		}
	}
	return out
}

// WriteCSV writes a Domain,Available header and one Yes/No row per result.
func WriteCSV(w io.Writer, results []finder.AvailabilityResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Domain", "Available"}); err != nil {
		return err
	}
	for _, r := range results {
		available := "No"
		if r.Available {
			available = "Yes"
		}
		if err := cw.Write([]string{r.Domain, available}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds domains_<keyword>_<tld>_<unix-millis>.csv.
func Filename(keyword, tld string, at time.Time) string {
	kw := strings.Trim(unsafeFilenameRe.ReplaceAllString(strings.TrimSpace(keyword), "-"), "-")
	if kw == "" {
		kw = "search"
	}
	t := strings.Trim(unsafeFilenameRe.ReplaceAllString(tld, "-"), "-.")
	return fmt.Sprintf("domains_%s_%s_%d.csv", kw, t, at.UnixMilli())
}

// BulkSearchURL lists every available result on the registrar's bulk search
// page. It returns "" when nothing is available.
func BulkSearchURL(results []finder.AvailabilityResult) string {
	var parts []string
	for _, r := range results {
		if r.Available {
			parts = append(parts, url.QueryEscape(r.Domain))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return BulkSearchBaseURL + "?domain=" + strings.Join(parts, ",") + "&type=beast"
}
