package web

import "net/http"

// RegisterRoutes registers the static asset routes on mux. Any GET that no
// more specific pattern claims is a file lookup; every other unmatched
// request is 404.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /", h.ServeFile)
	mux.HandleFunc("/", NotFound)
}
