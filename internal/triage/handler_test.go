package triage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"health-assistant/internal/session"
)

func TestHandlerRejectsMissingUserIDBeforeInterpreting(t *testing.T) {
	// A nil interpreter proves the request is rejected before any
	// collaborator runs.
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/triage/interpret",
		strings.NewReader(`{"message": "hola"}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerReturnsInterpreterResponse(t *testing.T) {
	completer := &mockCompleter{replies: []string{`{"capa": 1, "sintomas": ["tos"]}`}}
	interp := newTriageInterpreter(completer, session.NewMemoryStore(20))

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(interp))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/triage/interpret",
		strings.NewReader(`{"user_id": "u1", "message": "tengo tos"}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(1), body["capa"])
	require.NotEmpty(t, body["advertencia"])
}

func TestHandlerMapsMalformedOutputTo500(t *testing.T) {
	completer := &mockCompleter{replies: []string{"no soy JSON"}}
	interp := newTriageInterpreter(completer, session.NewMemoryStore(20))

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(interp))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/triage/interpret",
		strings.NewReader(`{"user_id": "u1", "message": "hola"}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "no soy JSON")
}
