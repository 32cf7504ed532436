package healthcheck

import (
	"encoding/json"
	"net/http"
)

// Self reports liveness of the process itself.
func Self(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "UP"})
}
