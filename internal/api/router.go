// File: backend/internal/api/router.go
package api

import (
	"net/http"

	"github.com/fntelecomllc/domainfinder/backend/internal/config"
	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
	"github.com/gorilla/mux"
)

func NewRouter(cfg *config.AppConfig, svc *finder.Service) *mux.Router {
	router := mux.NewRouter()
	apiHandler := NewAPIHandler(cfg, svc)

	router.Use(RequestIDMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/ping", apiHandler.PingHandler).Methods(http.MethodGet, http.MethodOptions)
	// Registered ahead of the /api subrouter so it stays reachable without a key.
	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet, http.MethodOptions)

	apiRoutes := router.PathPrefix("/api").Subrouter()
	if cfg.Server.APIKey != "" {
		apiRoutes.Use(APIKeyAuthMiddleware(cfg.Server.APIKey))
	}

	apiRoutes.HandleFunc("/domains", apiHandler.SearchDomainsHandler).Methods(http.MethodGet, http.MethodOptions)

	// Export
	apiRoutes.HandleFunc("/export/csv", apiHandler.ExportCSVHandler).Methods(http.MethodPost, http.MethodOptions)
	apiRoutes.HandleFunc("/export/bulk-url", apiHandler.BulkURLHandler).Methods(http.MethodPost, http.MethodOptions)

	return router
}
