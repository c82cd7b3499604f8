package httpapi

import (
	"encoding/json"
	"net/http"
)

// respond writes a JSON body; the transport never leaks Go error types.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError renders the uniform {success:false, error} failure shape.
func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// decode parses a request body into a typed DTO.
func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
