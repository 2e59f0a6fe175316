// File: backend/internal/api/export_handlers.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/fntelecomllc/domainfinder/backend/internal/export"
	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
)

const maxExportBodyBytes = 1 << 20

// ExportRequest is the result list as the browser currently holds it.
type ExportRequest struct {
	Keyword   string                      `json:"keyword"`
	TLD       string                      `json:"tld"`
	Domains   []finder.AvailabilityResult `json:"domains"`
	Dismissed []string                    `json:"dismissed"`
}

type bulkURLResponse struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

func decodeExportRequest(w http.ResponseWriter, r *http.Request) (*ExportRequest, []finder.AvailabilityResult, bool) {
	var req ExportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExportBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, nil, false
	}
	visible := export.NewDisplayState(req.Dismissed...).Visible(req.Domains)
	if len(visible) == 0 {
		respondWithError(w, http.StatusBadRequest, "No domains to export")
		return nil, nil, false
	}
	return &req, visible, true
}

// ExportCSVHandler returns the visible results as a CSV attachment.
// POST /api/export/csv
func (h *APIHandler) ExportCSVHandler(w http.ResponseWriter, r *http.Request) {
	req, visible, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, visible); err != nil {
		log.Printf("API Error: [%s] CSV export failed: %v", RequestIDFrom(r.Context()), err)
		respondWithError(w, http.StatusInternalServerError, "Failed to build CSV")
		return
	}

	filename := export.Filename(req.Keyword, req.TLD, h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// BulkURLHandler returns the registrar bulk search link for the visible available domains.
// POST /api/export/bulk-url
func (h *APIHandler) BulkURLHandler(w http.ResponseWriter, r *http.Request) {
	_, visible, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}
	count := 0
	for _, d := range visible {
		if d.Available {
			count++
		}
	}
	respondWithJSON(w, http.StatusOK, bulkURLResponse{URL: export.BulkSearchURL(visible), Count: count})
}
