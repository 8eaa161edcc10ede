package handlers

import "net/http"

// Health handles GET /health for the local surface.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}
