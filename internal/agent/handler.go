package agent

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"health-assistant/internal/httpapi"
)

type Handler struct {
	router *Router
}

func NewHandler(router *Router) *Handler {
	return &Handler{router: router}
}

func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	req, ok := httpapi.DecodeInterpretRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.router.Route(r.Context(), req.UserID, req.Message)
	if err != nil {
		httpapi.WriteServerError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/agent/route", h.Route)
}
