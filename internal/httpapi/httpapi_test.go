package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"health-assistant/internal/llm"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDecodeInterpretRequestValid(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/triage/interpret",
		strings.NewReader(`{"user_id": "u1", "message": "hola"}`))

	req, ok := DecodeInterpretRequest(rec, r)
	require.True(t, ok)
	require.Equal(t, "u1", req.UserID)
	require.Equal(t, "hola", req.Message)
}

func TestDecodeInterpretRequestMissingUserID(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/triage/interpret",
		strings.NewReader(`{"message": "hola"}`))

	_, ok := DecodeInterpretRequest(rec, r)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["detail"], "user_id")
}

func TestDecodeInterpretRequestMissingMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/triage/interpret",
		strings.NewReader(`{"user_id": "u1"}`))

	_, ok := DecodeInterpretRequest(rec, r)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeInterpretRequestBadBody(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/triage/interpret", strings.NewReader("no es json"))

	_, ok := DecodeInterpretRequest(rec, r)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteServerErrorHidesModelOutput(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &llm.MalformedOutputError{
		Reason: "no JSON object found",
		Raw:    "texto crudo del modelo que no debe filtrarse",
	}

	WriteServerError(rec, err)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "texto crudo")
	require.NotContains(t, rec.Body.String(), "no JSON object found")
	require.NotEmpty(t, decodeBody(t, rec)["detail"])
}

func TestWriteJSONSetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]string{"ok": "sí"})
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, http.StatusOK, rec.Code)
}
