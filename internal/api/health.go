package api

import (
	"context"
	"net/http"
	"sort"
)

// componentHealth is one entry in the health response.
type componentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth runs each registered component check and reports the
// aggregate. Any failing component degrades the overall status but the
// response stays 200; orchestrators should use /ready for gating.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	overall := "ok"
	components := make([]componentHealth, 0, len(s.checks))
	for name, check := range s.checks {
		if check == nil {
			continue
		}
		entry := componentHealth{Name: name, Status: "ok"}
		if err := check.HealthCheck(ctx); err != nil {
			entry.Status = "degraded"
			entry.Error = err.Error()
			overall = "degraded"
		}
		components = append(components, entry)
	}
	sort.Slice(components, func(i, j int) bool { return components[i].Name < components[j].Name })

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     overall,
		"bridge":     s.bridgeName,
		"version":    s.version,
		"components": components,
	})
}

// handleReady reports whether the platform has completed its initial
// login, inventory fetch, and first sync pass. Returns 503 until then.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := s.platform.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ready": ready})
}
