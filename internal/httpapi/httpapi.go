// Package httpapi holds the request/response plumbing shared by the
// interpreter handlers: request decoding with the user_id precondition, JSON
// writing, and the mapping from internal errors to safe client-facing ones.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"health-assistant/internal/llm"
)

// InterpretRequest is the body every interpreter endpoint accepts.
type InterpretRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// DecodeInterpretRequest parses and validates the request body. A missing
// user_id is rejected here, before any collaborator is invoked. Returns false
// when the response has already been written.
func DecodeInterpretRequest(w http.ResponseWriter, r *http.Request) (InterpretRequest, bool) {
	var req InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteClientError(w, "cuerpo de la solicitud inválido")
		return req, false
	}
	if req.UserID == "" {
		WriteClientError(w, "user_id es requerido para mantener el historial")
		return req, false
	}
	if req.Message == "" {
		WriteClientError(w, "message es requerido")
		return req, false
	}
	return req, true
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("httpapi: encode response")
	}
}

func WriteClientError(w http.ResponseWriter, detail string) {
	WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": detail})
}

// WriteServerError maps an interpreter failure to a generic 500. Details stay
// in the logs: prompt text and model output must never reach the caller.
func WriteServerError(w http.ResponseWriter, err error) {
	var malformed *llm.MalformedOutputError
	if errors.As(err, &malformed) {
		log.Error().Err(err).Str("raw", malformed.Raw).Msg("model returned unusable output")
	} else {
		log.Error().Err(err).Msg("request failed")
	}
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"detail": "No pudimos procesar tu solicitud. Inténtalo de nuevo en unos minutos.",
	})
}
