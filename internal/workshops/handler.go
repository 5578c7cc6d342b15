package workshops

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"health-assistant/internal/httpapi"
)

type Handler struct {
	interpreter *Interpreter
}

func NewHandler(interpreter *Interpreter) *Handler {
	return &Handler{interpreter: interpreter}
}

func (h *Handler) Interpret(w http.ResponseWriter, r *http.Request) {
	req, ok := httpapi.DecodeInterpretRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.interpreter.Interpret(r.Context(), req.UserID, req.Message)
	if err != nil {
		httpapi.WriteServerError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/workshops/interpret", h.Interpret)
}
