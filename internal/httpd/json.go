package httpd

import (
	"encoding/json"
	"net/http"
)

// writeJSON mirrors the teacher's internal/api.WriteJSON helper, trimmed
// to what the health routes need.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
