package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kmehta/taskhub-be/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a service error to its status code. Anything outside the
// taxonomy is an unexpected store failure: logged, returned as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "fields": ve.Fields})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": services.ErrInvalidCredentials.Error()})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		log.Error().Err(err).Msg("Unexpected error handling request")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// decodeAllowList decodes the body into dst while rejecting any key outside
// allowed. Updates are a whitelist, not best-effort filtering.
func decodeAllowList(body []byte, dst any, allowed map[string]bool) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return &services.ValidationError{Fields: map[string]string{"body": "must be a JSON object"}}
	}
	for key := range raw {
		if !allowed[key] {
			return &services.ValidationError{Fields: map[string]string{key: "is not an updatable field"}}
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &services.ValidationError{Fields: map[string]string{"body": "must be a JSON object"}}
	}
	return nil
}
