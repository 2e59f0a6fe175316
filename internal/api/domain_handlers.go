// File: backend/internal/api/domain_handlers.go
package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
)

// SearchDomainsHandler runs one generate-and-check search.
// GET /api/domains?keyword=...&tld=...&count=...
func (h *APIHandler) SearchDomainsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := finder.SearchRequest{
		Keyword: q.Get("keyword"),
		TLD:     q.Get("tld"),
		Count:   h.Finder.DefaultCount(),
	}
	if raw := strings.TrimSpace(q.Get("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "count must be an integer")
			return
		}
		req.Count = n
	}

	reqID := RequestIDFrom(r.Context())
	resp, err := h.Finder.Search(r.Context(), req)
	if err != nil {
		status, title, message := userFacingError(err)
		log.Printf("API Error: [%s] domain search for '%s' (.%s) failed with %d: %v", reqID, req.Keyword, req.TLD, status, err)
		if status == http.StatusBadRequest {
			respondWithError(w, status, title)
			return
		}
		respondWithErrorDetail(w, status, title, message)
		return
	}

	log.Printf("API: [%s] domain search for '%s' (.%s) returned %d domains", reqID, resp.Keyword, resp.TLD, len(resp.Domains))
	respondWithJSON(w, http.StatusOK, resp)
}
