package validation

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

const maxCandidateBytes = 16 << 20

// Handler exposes a Validator over HTTP with the same contract HTTPValidator consumes:
// POST the candidate as the body, receive {passed, errorMessage}.
func Handler(v ports.Validator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxCandidateBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := v.Validate(req.Context(), string(body))
		if err != nil {
			if logger != nil {
				logger.Error("validation failed", "error", err)
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
	return r
}
