package httpx

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes payload as the response body. Every endpoint answers
// JSON, analytics envelopes and errors alike.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError answers with the uniform {"error": message} body the dashboard
// surfaces verbatim. Message detail is policed by respondServiceError.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
