package handlers

import "net/http"

// Health is a liveness probe. It does not touch the database.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
