// File: backend/internal/api/handler_base.go
package api

import (
	"time"

	"github.com/fntelecomllc/domainfinder/backend/internal/config"
	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
)

// APIHandler holds shared dependencies for API handlers. Config is read-only
// after startup.
type APIHandler struct {
	Config *config.AppConfig
	Finder *finder.Service
	now    func() time.Time
}

// NewAPIHandler creates a new APIHandler with dependencies.
func NewAPIHandler(cfg *config.AppConfig, svc *finder.Service) *APIHandler {
	return &APIHandler{
		Config: cfg,
		Finder: svc,
		now:    time.Now,
	}
}
