package session

import (
	"fmt"
	"strings"
)

// FormatSummary renders the most recent turns (at most limit) as the compact
// Spanish digest injected into interpreter prompts. Only a handful of salient
// fields per turn are surfaced, so the summary stays small no matter how much
// structure the stored responses carry. Empty history yields an empty string,
// which the prompt builders use to skip the history section entirely.
func FormatSummary(turns []Turn, limit int) string {
	if len(turns) == 0 {
		return ""
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Turno %d:\n", i+1)
		fmt.Fprintf(&b, "  Usuario dijo: %s\n", t.Message)
		fmt.Fprintf(&b, "  Endpoint: %s\n", t.Endpoint)

		switch t.Endpoint {
		case EndpointDoctors:
			writeDoctorFields(&b, t.Response)
		case EndpointTriage:
			writeTriageFields(&b, t.Response)
		case EndpointWorkshops:
			writeWorkshopFields(&b, t.Response)
		}
	}
	return b.String()
}

func writeDoctorFields(b *strings.Builder, resp map[string]any) {
	criteria, _ := resp["criterios"].(map[string]any)
	writeField(b, "Especialidad mencionada", stringField(criteria, "especialidad"))
	writeField(b, "Modalidad", stringField(criteria, "modalidad"))
	writeField(b, "Fecha solicitada", stringField(criteria, "fecha"))
	writeField(b, "Distrito", stringField(criteria, "distrito"))
	writeField(b, "Departamento", stringField(criteria, "departamento"))
	writeField(b, "Sistema preguntó", stringField(resp, "pregunta_pendiente"))
}

func writeTriageFields(b *strings.Builder, resp map[string]any) {
	if capa, ok := numberField(resp, "capa"); ok {
		fmt.Fprintf(b, "  Capa asignada: %d\n", capa)
	}
	if reasons := stringSliceField(resp, "razones"); len(reasons) > 0 {
		fmt.Fprintf(b, "  Razones: %s\n", strings.Join(reasons, ", "))
	}
	if symptoms := stringSliceField(resp, "sintomas"); len(symptoms) > 0 {
		fmt.Fprintf(b, "  Síntomas: %s\n", strings.Join(symptoms, ", "))
	}
	writeField(b, "Especialidad sugerida", stringField(resp, "especialidad_sugerida"))
	writeField(b, "Acción recomendada", stringField(resp, "accion_recomendada"))
}

func writeWorkshopFields(b *strings.Builder, resp map[string]any) {
	writeField(b, "Operación", stringField(resp, "operacion"))
	filters, _ := resp["filtros"].(map[string]any)
	writeField(b, "Tema buscado", stringField(filters, "tema"))
	writeField(b, "Modalidad", stringField(filters, "modalidad"))
}

func writeField(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "  %s: %s\n", label, value)
	}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func numberField(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func stringSliceField(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		if typed, ok := m[key].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
