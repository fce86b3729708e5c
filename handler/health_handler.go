package handler

import (
	"encoding/json"
	"net/http"
)

// HealthCheck reports liveness. Public route; the guard never sees it.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "API is healthy and running"})
}
