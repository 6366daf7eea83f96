package handlers

import "net/http"

// HealthCheck handles GET /health. No auth required.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
