package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatSummaryEmptyHistory(t *testing.T) {
	require.Equal(t, "", FormatSummary(nil, 5))
	require.Equal(t, "", FormatSummary([]Turn{}, 5))
}

func TestFormatSummaryKeepsOnlyLastTurns(t *testing.T) {
	turns := make([]Turn, 8)
	for i := range turns {
		turns[i] = Turn{Message: "mensaje " + string(rune('a'+i)), Endpoint: EndpointTriage}
	}

	out := FormatSummary(turns, 5)

	require.NotContains(t, out, "mensaje a")
	require.NotContains(t, out, "mensaje c")
	require.Contains(t, out, "mensaje d")
	require.Contains(t, out, "mensaje h")
	require.Equal(t, 5, strings.Count(out, "Turno "))
}

func TestFormatSummaryIsDeterministic(t *testing.T) {
	turns := []Turn{
		{Message: "me duele la cabeza", Endpoint: EndpointTriage, Response: map[string]any{
			"capa":     float64(2),
			"razones":  []any{"cefalea persistente"},
			"sintomas": []any{"dolor de cabeza"},
		}},
		{Message: "quiero una cita", Endpoint: EndpointDoctors, Response: map[string]any{
			"criterios":          map[string]any{"especialidad": "Neurología"},
			"pregunta_pendiente": "¿Prefieres atención virtual o presencial?",
		}},
	}

	first := FormatSummary(turns, 5)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, FormatSummary(turns, 5))
	}
}

func TestFormatSummaryTriageFields(t *testing.T) {
	turns := []Turn{{
		Message:  "tengo fiebre y rigidez de cuello",
		Endpoint: EndpointTriage,
		Response: map[string]any{
			"capa":                  float64(4),
			"razones":               []any{"combinación de alarma"},
			"sintomas":              []any{"fiebre", "rigidez de cuello"},
			"especialidad_sugerida": "Medicina General",
			"accion_recomendada":    "llamar_emergencias",
		},
	}}

	out := FormatSummary(turns, 5)

	require.Contains(t, out, "Turno 1:")
	require.Contains(t, out, "Usuario dijo: tengo fiebre y rigidez de cuello")
	require.Contains(t, out, "Capa asignada: 4")
	require.Contains(t, out, "Síntomas: fiebre, rigidez de cuello")
	require.Contains(t, out, "Acción recomendada: llamar_emergencias")
}

func TestFormatSummaryDoctorFields(t *testing.T) {
	turns := []Turn{{
		Message:  "quiero un cardiólogo virtual",
		Endpoint: EndpointDoctors,
		Response: map[string]any{
			"criterios": map[string]any{
				"especialidad": "Cardiología",
				"modalidad":    "virtual",
				"fecha":        "2026-09-01",
			},
			"pregunta_pendiente": "",
		},
	}}

	out := FormatSummary(turns, 5)

	require.Contains(t, out, "Especialidad mencionada: Cardiología")
	require.Contains(t, out, "Modalidad: virtual")
	require.Contains(t, out, "Fecha solicitada: 2026-09-01")
	require.NotContains(t, out, "Sistema preguntó")
}

func TestFormatSummaryWorkshopFields(t *testing.T) {
	turns := []Turn{{
		Message:  "busco talleres de estrés",
		Endpoint: EndpointWorkshops,
		Response: map[string]any{
			"operacion": "SEARCH",
			"filtros":   map[string]any{"tema": "stress_management"},
		},
	}}

	out := FormatSummary(turns, 5)

	require.Contains(t, out, "Operación: SEARCH")
	require.Contains(t, out, "Tema buscado: stress_management")
}

func TestFormatSummarySkipsAbsentFields(t *testing.T) {
	turns := []Turn{{Message: "hola", Endpoint: EndpointTriage, Response: map[string]any{}}}

	out := FormatSummary(turns, 5)

	require.Contains(t, out, "Usuario dijo: hola")
	require.NotContains(t, out, "Capa asignada")
	require.NotContains(t, out, "Razones")
}
