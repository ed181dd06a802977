package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// mountFrontend serves the prebuilt frontend bundle at / when the directory
// exists, and a JSON banner otherwise.
func mountFrontend(r chi.Router, buildPath string) {
	if info, err := os.Stat(buildPath); buildPath != "" && err == nil && info.IsDir() {
		log.Info().Str("path", buildPath).Msg("Serving frontend bundle")
		r.Handle("/*", http.FileServer(http.Dir(buildPath)))
		return
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"RealtimeMaps backend running. Build the frontend or run the Vite dev server."}` + "\n"))
	})
}
