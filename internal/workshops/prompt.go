package workshops

import "strings"

// PromptContext carries the per-request parameters for the workshop prompt.
type PromptContext struct {
	Today          string
	HistorySummary string
	KnowledgeBase  string
}

const systemPromptBase = `Eres un asistente que interpreta solicitudes sobre talleres de bienestar
(estrés, sueño, ansiedad leve, nutrición, hábitos saludables). Tu única tarea es
LEER el mensaje del usuario y devolver UN JSON con la operación y los filtros.
Siempre trabajas en ESPAÑOL y NO inventes talleres.

La fecha actual es {hoy}; convierte referencias relativas a "YYYY-MM-DD".

FORMATO DE RESPUESTA OBLIGATORIO, exclusivamente JSON válido sin texto extra:
{
  "operacion": "SEARCH" | "LIST_MY_WORKSHOPS" | "REGISTER",
  "filtros": {
    "tema": "stress_management" | "sleep_hygiene" | "nutrition" | "anxiety_management" | "general_wellbeing" | "any",
    "fecha": "YYYY-MM-DD o null",
    "horario": "mañana" | "tarde" | "noche" | null,
    "modalidad": "virtual" | "presencial" | "any",
    "ubicacion": "string o null"
  },
  "taller_id": "ID del taller si el usuario quiere registrarse en uno específico, o null"
}`

func BuildSystemPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(systemPromptBase, "{hoy}", pc.Today))

	if pc.HistorySummary != "" {
		b.WriteString("\n\nHISTORIAL DE CONVERSACIÓN RECIENTE:\n")
		b.WriteString(pc.HistorySummary)
	}
	if pc.KnowledgeBase != "" {
		b.WriteString("\n\nCONTEXTO DE LA BASE DE CONOCIMIENTO:\n")
		b.WriteString(pc.KnowledgeBase)
	}

	b.WriteString("\n\nAhora interpreta el mensaje del usuario y devuelve EXCLUSIVAMENTE el JSON.")
	return b.String()
}
