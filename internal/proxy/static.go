package proxy

import (
	"net/http"
	"path/filepath"
)

// HandleStatic serves index.html for "/" and every other path verbatim from
// the frontend directory.
func (h *Handler) HandleStatic() http.Handler {
	files := http.FileServer(http.Dir(h.frontendDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path == "/" {
			http.ServeFile(w, r, filepath.Join(h.frontendDir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
